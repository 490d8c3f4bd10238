package ice

import (
	"fmt"

	"github.com/pion/stun/v2"
)

// PairFoundation groups pairs that can be unfrozen together: all pairs
// sharing a PairFoundation succeed or get tried as a unit (RFC 5245 §5.7.4).
type PairFoundation struct {
	LocalFoundation  string
	RemoteFoundation string
}

// CandidatePair is a (local, remote) candidate tuple subject to a
// connectivity check.
type CandidatePair struct {
	Local  Candidate
	Remote Candidate

	Priority uint64
	State    PairState
	Role     Role

	// CheckRole is the role in effect when this pair's outstanding
	// request was sent (binding_request.go's first-send branch). Unlike
	// Role, which recomputeAllPriorities overwrites on every role flip
	// for every pair, CheckRole is set once per check and left alone, so
	// §4.7's error-response handling can recover the role that was
	// actually in effect when the failing request went out.
	CheckRole Role

	IsDefault   bool
	IsNominated bool

	TransactionID [stun.TransactionIDSize]byte

	RtoMs                  uint32
	Retransmissions        uint32
	TransmissionTimeMs     uint64
	WaitTransactionTimeout bool

	// previousState records the state the pair held immediately before
	// its last transition.
	previousState PairState

	// sawUseCandidateWhileInProgress is set when an inbound request
	// carrying USE-CANDIDATE arrives while this pair is InProgress
	// (§4.4's "recorded implicitly" case). §4.5 consults and clears it
	// to decide controlled-side nomination once the pair succeeds (§9's
	// open question on reordered packets).
	sawUseCandidateWhileInProgress bool
}

// newCandidatePair creates a Frozen pair with priority computed per §3
// for the given role.
func newCandidatePair(local, remote Candidate, role Role) *CandidatePair {
	p := &CandidatePair{
		Local:  local,
		Remote: remote,
		Role:   role,
		State:  PairStateFrozen,
		RtoMs:  defaultRtoMs,
	}
	p.recomputePriority()
	return p
}

// recomputePriority recomputes Priority from Local/Remote/Role per §3:
// priority = (min(G,D) << 32) | (max(G,D) << 1) | (G > D ? 1 : 0), where
// G is the controlling side's candidate priority and D the other side's.
func (p *CandidatePair) recomputePriority() {
	var g, d uint64
	if p.Role == Controlling {
		g = uint64(p.Local.Priority())
		d = uint64(p.Remote.Priority())
	} else {
		g = uint64(p.Remote.Priority())
		d = uint64(p.Local.Priority())
	}

	min, max := g, d
	var cmp uint64
	if g > d {
		min, max = d, g
		cmp = 1
	}

	p.Priority = min<<32 | max<<1 | cmp
}

// setState transitions the pair, recording previousState and zeroing the
// transaction ID exactly when the new state is Waiting or Failed (per
// §3's invariant).
func (p *CandidatePair) setState(s PairState) {
	p.previousState = p.State
	p.State = s
	if s == PairStateWaiting || s == PairStateFailed {
		p.TransactionID = [stun.TransactionIDSize]byte{}
	}
}

// String renders the pair for debug logging, mirroring the original
// ice_dump_candidate_pair helper.
func (p *CandidatePair) String() string {
	return fmt.Sprintf("%s <-> %s state=%s priority=%d nominated=%t",
		p.Local, p.Remote, p.State, p.Priority, p.IsNominated)
}

// foundation returns the PairFoundation this pair belongs to.
func (p *CandidatePair) foundation() PairFoundation {
	return PairFoundation{
		LocalFoundation:  p.Local.Foundation(),
		RemoteFoundation: p.Remote.Foundation(),
	}
}

// samePairEndpoint reports whether candidates a and b are the same pair
// endpoint by the duplicate-detection rule of §4.1: equal in (type, taddr,
// component_id, priority).
func samePairEndpoint(a, b Candidate) bool {
	return a.Type() == b.Type() &&
		a.TransportAddr().Equal(b.TransportAddr()) &&
		a.Component() == b.Component() &&
		a.Priority() == b.Priority()
}

// matchesEndpoints reports whether p's (local, remote) pair compares
// equal to the given candidates under the endpoint-equality rule above —
// used for check-list lookups by receive address, not by pointer identity.
func (p *CandidatePair) matchesEndpoints(local, remote Candidate) bool {
	return samePairEndpoint(p.Local, local) && samePairEndpoint(p.Remote, remote)
}

// ValidPair is a CandidatePair known to work, paired with the pair whose
// check produced it.
type ValidPair struct {
	Valid         *CandidatePair
	GeneratedFrom *CandidatePair
}

// duplicateOf reports whether v and other reference the same (valid,
// generated_from) combination, per §3's ValidPair duplicate rule.
func (v *ValidPair) duplicateOf(other *ValidPair) bool {
	return v.Valid.matchesEndpoints(other.Valid.Local, other.Valid.Remote) &&
		v.GeneratedFrom == other.GeneratedFrom
}
