package ice

import (
	"testing"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrorResponseUsesRoleRecordedAtCheckTimeNotLiveRole exercises §4.7
// across two streams: a role conflict resolved on stream A propagates to
// every stream's live role, but must not disturb the role stream B's own
// in-flight pair recorded when its request was sent. When B's request
// later comes back 487, the flip it computes must be based on that
// recorded role, not the live role A's conflict already overwrote.
func TestErrorResponseUsesRoleRecordedAtCheckTimeNotLiveRole(t *testing.T) {
	s, err := New(SessionConfig{
		Role:          Controlling,
		LoggerFactory: logging.NewDefaultLoggerFactory(),
		Transport:     &fakeTransport{},
	})
	require.NoError(t, err)

	clA, err := s.AddCheckList()

	require.NoError(t, err)
	clB, err := s.AddCheckList()
	require.NoError(t, err)
	localA := mustHost(t, "10.0.0.1", 5000, ComponentRTP)
	remoteA := mustHost(t, "10.0.0.2", 6000, ComponentRTP)
	pA := newCandidatePair(localA, remoteA, Controlling)
	pA.CheckRole = Controlling
	pA.setState(PairStateInProgress)
	clA.pairs = []*CandidatePair{pA}
	clA.checkList = []*CandidatePair{pA}

	localB := mustHost(t, "10.0.1.1", 5100, ComponentRTP)
	remoteB := mustHost(t, "10.0.1.2", 6100, ComponentRTP)
	pB := newCandidatePair(localB, remoteB, Controlling)
	pB.CheckRole = Controlling // recorded when B's request was sent, before A's conflict
	pB.TransactionID[0] = 0x42
	pB.setState(PairStateInProgress)
	clB.pairs = []*CandidatePair{pB}
	clB.checkList = []*CandidatePair{pB}

	// Stream A loses a role conflict and flips Controlling -> Controlled,
	// propagating to every stream's live role, including B's.
	clA.flipRole(Controlled)
	assert.Equal(t, Controlled, s.role)
	assert.Equal(t, Controlled, pB.Role, "propagation rewrites the live role")
	assert.Equal(t, Controlling, pB.CheckRole, "but not the recorded check-time role")

	// B's own request now comes back 487. Resolving off the recorded role
	// must land on Controlled -- the role already in effect -- not flip
	// the session back to Controlling.
	clB.handleErrorResponse(InboundPacket{
		Component:  ComponentRTP,
		SourceAddr: remoteB.TransportAddr(),
		NowMs:      20,
	}, &StunMessage{
		TransactionID: pB.TransactionID,
		HasErrorCode:  true,
		ErrorClass:    4,
		ErrorNumber:   87,
	})

	assert.Equal(t, Controlled, s.role, "must not oscillate back to Controlling")
	assert.Equal(t, Controlled, clA.role)
	assert.Equal(t, Controlled, clB.role)
	assert.Equal(t, PairStateWaiting, pB.State)
}
