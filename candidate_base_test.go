package ice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidatePriorityFormula(t *testing.T) {
	host, err := NewCandidateHost(CandidateHostConfig{IP: "10.0.0.1", Port: 5000, Component: ComponentRTP})
	require.NoError(t, err)

	want := CandidateTypeHost.Preference()<<24 | uint32(defaultLocalPreference)<<8 | uint32(256-ComponentRTP)
	assert.Equal(t, want, host.Priority())

	rtcpHost, err := NewCandidateHost(CandidateHostConfig{IP: "10.0.0.1", Port: 5001, Component: ComponentRTCP})
	require.NoError(t, err)
	assert.Less(t, rtcpHost.Priority(), host.Priority(), "RTCP component should yield a lower priority than RTP")
}

func TestCandidatePriorityOverrideForSignaledRemote(t *testing.T) {
	remote, err := NewCandidateHost(CandidateHostConfig{
		IP: "203.0.113.5", Port: 40000, Component: ComponentRTP, Priority: 999,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 999, remote.Priority())
}

func TestCandidateHostIsSelfBased(t *testing.T) {
	host, err := NewCandidateHost(CandidateHostConfig{IP: "10.0.0.1", Port: 5000, Component: ComponentRTP})
	require.NoError(t, err)
	assert.Equal(t, Candidate(host), host.Base())
}

func TestCandidateServerReflexivePointsToBase(t *testing.T) {
	host, err := NewCandidateHost(CandidateHostConfig{IP: "10.0.0.1", Port: 5000, Component: ComponentRTP})
	require.NoError(t, err)

	srflx, err := NewCandidateServerReflexive(CandidateServerReflexiveConfig{
		IP: "198.51.100.1", Port: 6000, Component: ComponentRTP, Base: host,
	})
	require.NoError(t, err)
	assert.Equal(t, Candidate(host), srflx.Base())
}

func TestCandidateEqualIgnoresFoundationAndDefault(t *testing.T) {
	a, err := NewCandidateHost(CandidateHostConfig{IP: "10.0.0.1", Port: 5000, Component: ComponentRTP})
	require.NoError(t, err)
	b, err := NewCandidateHost(CandidateHostConfig{IP: "10.0.0.1", Port: 5000, Component: ComponentRTP})
	require.NoError(t, err)

	a.setDefault(true)
	a.foundation = "aaa"
	b.foundation = "bbb"

	assert.True(t, a.Equal(b))
}

func TestCandidateInvalidAddress(t *testing.T) {
	_, err := NewCandidateHost(CandidateHostConfig{IP: "not-an-ip", Port: 5000, Component: ComponentRTP})
	assert.ErrorIs(t, err, ErrAddressParseFailed)
}
