package ice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHost(t *testing.T, ip string, port uint16, component uint16) *CandidateHost {
	t.Helper()
	c, err := NewCandidateHost(CandidateHostConfig{IP: ip, Port: port, Component: component})
	require.NoError(t, err)
	return c
}

func TestPairPriorityFormula(t *testing.T) {
	local := mustHost(t, "10.0.0.1", 5000, ComponentRTP)
	remote, err := NewCandidateHost(CandidateHostConfig{IP: "10.0.0.2", Port: 6000, Component: ComponentRTP, Priority: 12345})
	require.NoError(t, err)

	pControlling := newCandidatePair(local, remote, Controlling)
	pControlled := newCandidatePair(local, remote, Controlled)

	g := uint64(local.Priority())
	d := uint64(remote.Priority())
	min, max, cmp := g, d, uint64(0)
	if g > d {
		min, max, cmp = d, g, 1
	}
	want := min<<32 | max<<1 | cmp
	assert.Equal(t, want, pControlling.Priority)

	g, d = uint64(remote.Priority()), uint64(local.Priority())
	min, max, cmp = g, d, 0
	if g > d {
		min, max, cmp = d, g, 1
	}
	want = min<<32 | max<<1 | cmp
	assert.Equal(t, want, pControlled.Priority)
}

func TestPairPriorityRecomputeOnRoleFlip(t *testing.T) {
	local := mustHost(t, "10.0.0.1", 5000, ComponentRTP)
	remote, err := NewCandidateHost(CandidateHostConfig{IP: "10.0.0.2", Port: 6000, Component: ComponentRTP, Priority: 12345})
	require.NoError(t, err)

	p := newCandidatePair(local, remote, Controlling)
	before := p.Priority

	p.Role = Controlled
	p.recomputePriority()

	if local.Priority() != remote.Priority() {
		assert.NotEqual(t, before, p.Priority)
	}
}

func TestPairSetStateZeroesTransactionIDOnWaitingAndFailed(t *testing.T) {
	local := mustHost(t, "10.0.0.1", 5000, ComponentRTP)
	remote := mustHost(t, "10.0.0.2", 6000, ComponentRTP)
	p := newCandidatePair(local, remote, Controlling)
	p.TransactionID[0] = 0xFF

	p.setState(PairStateInProgress)
	assert.NotZero(t, p.TransactionID[0], "InProgress must not clear the transaction id")

	p.TransactionID[0] = 0xFF
	p.setState(PairStateWaiting)
	assert.Zero(t, p.TransactionID, "Waiting must zero the transaction id")

	p.TransactionID[0] = 0xFF
	p.setState(PairStateFailed)
	assert.Zero(t, p.TransactionID, "Failed must zero the transaction id")
}

func TestPairStringIncludesStateAndNomination(t *testing.T) {
	local := mustHost(t, "10.0.0.1", 5000, ComponentRTP)
	remote := mustHost(t, "10.0.0.2", 6000, ComponentRTP)
	p := newCandidatePair(local, remote, Controlling)
	p.IsNominated = true

	s := p.String()
	assert.Contains(t, s, "Frozen")
	assert.Contains(t, s, "nominated=true")
}

func TestValidPairDuplicateDetection(t *testing.T) {
	local := mustHost(t, "10.0.0.1", 5000, ComponentRTP)
	remote := mustHost(t, "10.0.0.2", 6000, ComponentRTP)
	generatedFrom := newCandidatePair(local, remote, Controlling)

	v1 := &ValidPair{Valid: newCandidatePair(local, remote, Controlling), GeneratedFrom: generatedFrom}
	v2 := &ValidPair{Valid: newCandidatePair(local, remote, Controlling), GeneratedFrom: generatedFrom}

	assert.True(t, v1.duplicateOf(v2))
}
