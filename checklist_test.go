package ice

import (
	"testing"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, role Role) *Session {
	t.Helper()
	s, err := New(SessionConfig{
		Role:          role,
		LoggerFactory: logging.NewDefaultLoggerFactory(),
		Transport:     &fakeTransport{},
	})
	require.NoError(t, err)
	return s
}

func TestBuildPairsFormsMatchingComponentsOnly(t *testing.T) {
	s := newTestSession(t, Controlling)
	cl, err := s.AddCheckList()
	require.NoError(t, err)
	_, err = cl.AddLocalCandidate(CandidateTypeHost, "10.0.0.1", 5000, ComponentRTP, nil)
	require.NoError(t, err)
	_, err = cl.AddLocalCandidate(CandidateTypeHost, "10.0.0.1", 5001, ComponentRTCP, nil)
	require.NoError(t, err)
	_, err = cl.AddRemoteCandidate(CandidateTypeHost, "10.0.0.2", 6000, ComponentRTP, 2130706431, "f1")
	require.NoError(t, err)

	require.NoError(t, s.PairCandidates())

	require.Len(t, cl.pairs, 1)
	assert.Equal(t, ComponentRTP, cl.pairs[0].Local.Component())
}

func TestBuildPairsReplacesServerReflexiveBase(t *testing.T) {
	s := newTestSession(t, Controlling)
	cl, err := s.AddCheckList()
	require.NoError(t, err)
	host, err := cl.AddLocalCandidate(CandidateTypeHost, "10.0.0.1", 5000, ComponentRTP, nil)
	require.NoError(t, err)
	_, err = cl.AddLocalCandidate(CandidateTypeServerReflexive, "198.51.100.1", 7000, ComponentRTP, host)
	require.NoError(t, err)
	_, err = cl.AddRemoteCandidate(CandidateTypeHost, "10.0.0.2", 6000, ComponentRTP, 2130706431, "f1")
	require.NoError(t, err)

	require.NoError(t, s.PairCandidates())

	require.Len(t, cl.pairs, 1)
	assert.Equal(t, host, cl.pairs[0].Local)
}

func TestBuildPairsPrunesDuplicatesKeepingHigherPriority(t *testing.T) {
	s := newTestSession(t, Controlling)
	cl, err := s.AddCheckList()
	require.NoError(t, err)
	host, err := cl.AddLocalCandidate(CandidateTypeHost, "10.0.0.1", 5000, ComponentRTP, nil)
	require.NoError(t, err)
	_, err = cl.AddLocalCandidate(CandidateTypeServerReflexive, "198.51.100.1", 7000, ComponentRTP, host)
	require.NoError(t, err)
	_, err = cl.AddLocalCandidate(CandidateTypeServerReflexive, "198.51.100.2", 7001, ComponentRTP, host)
	require.NoError(t, err)
	_, err = cl.AddRemoteCandidate(CandidateTypeHost, "10.0.0.2", 6000, ComponentRTP, 2130706431, "f1")
	require.NoError(t, err)

	require.NoError(t, s.PairCandidates())

	// Both srflx candidates get replaced by the same host base before
	// pruning, so they collapse into a single surviving pair.
	require.Len(t, cl.pairs, 1)
}

func TestBuildPairsTruncatesToMaxConnectivityChecks(t *testing.T) {
	s := newTestSession(t, Controlling)
	s.SetMaxConnectivityChecks(25)
	cl, err := s.AddCheckList()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := cl.AddLocalCandidate(CandidateTypeHost, "10.0.0.1", uint16(5000+i), ComponentRTP, nil)
		require.NoError(t, err)
	}
	for i := 0; i < 10; i++ {
		_, err := cl.AddRemoteCandidate(CandidateTypeHost, "10.0.0.2", uint16(6000+i), ComponentRTP, uint32(1000+i), "f")
		require.NoError(t, err)
	}

	require.NoError(t, s.PairCandidates())

	require.Len(t, cl.checkList, 25)
	for i := 1; i < len(cl.checkList); i++ {
		assert.GreaterOrEqual(t, cl.checkList[i-1].Priority, cl.checkList[i].Priority)
	}
}

func TestAddCandidateBoundedAtTen(t *testing.T) {
	s := newTestSession(t, Controlling)
	cl, err := s.AddCheckList()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := cl.AddLocalCandidate(CandidateTypeHost, "10.0.0.1", uint16(5000+i), ComponentRTP, nil)
		require.NoError(t, err)
	}

	_, err = cl.AddLocalCandidate(CandidateTypeHost, "10.0.0.1", 5999, ComponentRTP, nil)
	assert.ErrorIs(t, err, ErrTooManyCandidates)
	assert.Len(t, cl.localCandidates, 10)
}

func TestAddLocalCandidateFoldsEqualCandidateKeepingHigherPriority(t *testing.T) {
	s := newTestSession(t, Controlling)
	cl, err := s.AddCheckList()
	require.NoError(t, err)
	lower, err := cl.AddLocalCandidate(CandidateTypeHost, "10.0.0.1", 5000, ComponentRTP, nil)
	require.NoError(t, err)
	higher, err := NewCandidateHost(CandidateHostConfig{IP: "10.0.0.1", Port: 5000, Component: ComponentRTP, Priority: lower.Priority() + 1})
	require.NoError(t, err)

	require.NoError(t, cl.addLocalCandidate(higher))

	require.Len(t, cl.localCandidates, 1)
	assert.Equal(t, higher, cl.localCandidates[0])
}

func TestAddRemoteCandidateFoldsEqualCandidateIgnoringPriority(t *testing.T) {
	s := newTestSession(t, Controlling)
	cl, err := s.AddCheckList()
	require.NoError(t, err)
	_, err = cl.AddRemoteCandidate(CandidateTypeHost, "10.0.0.2", 6000, ComponentRTP, 100, "f1")
	require.NoError(t, err)
	_, err = cl.AddRemoteCandidate(CandidateTypeHost, "10.0.0.2", 6000, ComponentRTP, 50, "f1")
	require.NoError(t, err)

	require.Len(t, cl.remoteCandidates, 1)
	assert.EqualValues(t, 100, cl.remoteCandidates[0].Priority(), "lower-priority re-announcement must not win")
}

func TestInitialUnfreezePicksMinComponentMaxPriority(t *testing.T) {
	s := newTestSession(t, Controlling)
	cl, err := s.AddCheckList()
	require.NoError(t, err)
	_, err = cl.AddLocalCandidate(CandidateTypeHost, "10.0.0.1", 5000, ComponentRTP, nil)
	require.NoError(t, err)
	_, err = cl.AddLocalCandidate(CandidateTypeHost, "10.0.0.1", 5001, ComponentRTCP, nil)
	require.NoError(t, err)
	_, err = cl.AddRemoteCandidate(CandidateTypeHost, "10.0.0.2", 6000, ComponentRTP, 100, "f1")
	require.NoError(t, err)
	_, err = cl.AddRemoteCandidate(CandidateTypeHost, "10.0.0.2", 6001, ComponentRTCP, 100, "f2")
	require.NoError(t, err)

	require.NoError(t, s.PairCandidates())

	waitingCount := 0
	for _, p := range cl.checkList {
		if p.State == PairStateWaiting {
			waitingCount++
			assert.Equal(t, ComponentRTP, p.Local.Component())
		} else {
			assert.Equal(t, PairStateFrozen, p.State)
		}
	}
	assert.Equal(t, 1, waitingCount)
}

func TestCheckListDumpIncludesPairsAndValidList(t *testing.T) {
	s := newTestSession(t, Controlling)
	cl, err := s.AddCheckList()
	require.NoError(t, err)
	_, err = cl.AddLocalCandidate(CandidateTypeHost, "10.0.0.1", 5000, ComponentRTP, nil)
	require.NoError(t, err)
	_, err = cl.AddRemoteCandidate(CandidateTypeHost, "10.0.0.2", 6000, ComponentRTP, 2130706431, "f1")
	require.NoError(t, err)
	require.NoError(t, s.PairCandidates())

	dump := cl.Dump()
	assert.Contains(t, dump, "check list")
	assert.Contains(t, dump, "valid list")
	assert.Contains(t, dump, "10.0.0.1:5000")
}

func TestKeepaliveTimeoutClampedToFifteen(t *testing.T) {
	s := newTestSession(t, Controlling)
	s.SetKeepaliveTimeout(5)
	assert.EqualValues(t, 15, s.keepaliveTimeoutS)
}
