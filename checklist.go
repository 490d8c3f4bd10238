package ice

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pion/logging"
)

// successCallback is invoked exactly once, when a CheckList first reaches
// Completed (§4.6 step 3).
type successCallback func(ctx interface{})

// CheckList owns one media stream's candidates, pairs, and scheduling
// state (spec.md §3). It is not safe for concurrent use; callers running
// outside the single-ticker model described in §5 must serialize access
// to a given CheckList themselves.
type CheckList struct {
	log logging.LeveledLogger

	localCandidates  []Candidate
	remoteCandidates []Candidate

	pairs     []*CandidatePair
	checkList []*CandidatePair

	triggeredQueue []*CandidatePair
	triggeredSet   map[*CandidatePair]bool

	validList []*ValidPair

	componentIDs map[uint16]bool
	foundations  map[PairFoundation]bool

	remoteUfrag string
	remotePwd   string

	state CheckListState

	taTimeMs            uint64
	keepaliveTimeMs     uint64
	foundationGenerator uint32

	successCb    successCallback
	successCbCtx interface{}
	fired        bool

	firstStream bool

	role            Role
	tieBreaker      uint64
	localUfrag      string
	localPwd        string
	sessionRemoteUfrag string
	sessionRemotePwd   string
	taMs                    uint32
	keepaliveTimeoutS       uint8
	maxConnectivityChecks   int

	codec     StunCodec
	transport Transport

	// closed is set once the owning Session is destroyed (or, in
	// principle, once this check list is retired on its own). Process and
	// HandleStunPacket check it directly, the other exported methods
	// except Dump via ok().
	closed bool

	// streamIndex identifies this check list's stream to the Transport
	// (§6: get_rtp_socket(stream), get_rtcp_socket(stream)).
	streamIndex int

	// onRoleFlip, when set by the owning Session, propagates a role
	// change discovered on this check list to every other stream.
	onRoleFlip func(Role)
}

// newCheckList constructs an empty CheckList owned by a session; fields
// shared with the session (role, tie breaker, credentials, pacing) are
// copied in at construction time and kept in sync by the Session that
// owns this CheckList.
func newCheckList(log logging.LeveledLogger, codec StunCodec, transport Transport) *CheckList {
	return &CheckList{
		log:                     log,
		codec:                   codec,
		transport:               transport,
		triggeredSet:            make(map[*CandidatePair]bool),
		componentIDs:            make(map[uint16]bool),
		foundations:             make(map[PairFoundation]bool),
		state:                   CheckListRunning,
		taMs:                    defaultTaMs,
		keepaliveTimeoutS:       minKeepaliveTimeoutS,
		maxConnectivityChecks:   defaultMaxConnectivityChecks,
	}
}

// ok reports ErrCheckListClosed once the owning session has destroyed
// this check list; the exported methods other than Process,
// HandleStunPacket and Dump check it first.
func (cl *CheckList) ok() error {
	if cl.closed {
		return ErrCheckListClosed
	}
	return nil
}

// registerSuccessCallback installs the callback invoked exactly once when
// the check list completes (spec.md §4.6 step 3 / §6 CheckList API).
func (cl *CheckList) registerSuccessCallback(cb successCallback, ctx interface{}) {
	cl.successCb = cb
	cl.successCbCtx = ctx
}

// setRemoteCredentials installs per-stream remote credentials, overriding
// the session defaults for MESSAGE-INTEGRITY and USERNAME checks.
func (cl *CheckList) setRemoteCredentials(ufrag, pwd string) {
	cl.remoteUfrag = ufrag
	cl.remotePwd = pwd
}

func (cl *CheckList) effectiveRemoteUfrag() string {
	if cl.remoteUfrag != "" {
		return cl.remoteUfrag
	}
	return cl.sessionRemoteUfrag
}

func (cl *CheckList) effectiveRemotePwd() string {
	if cl.remotePwd != "" {
		return cl.remotePwd
	}
	return cl.sessionRemotePwd
}

// addLocalCandidate appends a local candidate, enforcing the 10-candidate
// bound from §3 and updating componentIDs. A candidate Equal to one
// already held is never counted twice: the higher-priority one survives,
// matching how a redundant re-gather is folded into the existing entry.
func (cl *CheckList) addLocalCandidate(c Candidate) error {
	if i := indexOfEqual(cl.localCandidates, c); i >= 0 {
		if c.Priority() > cl.localCandidates[i].Priority() {
			cl.localCandidates[i] = c
		}
		return nil
	}
	if len(cl.localCandidates) >= maxCandidatesPerList {
		return ErrTooManyCandidates
	}
	cl.localCandidates = append(cl.localCandidates, c)
	cl.componentIDs[c.Component()] = true
	return nil
}

// addRemoteCandidate appends a remote candidate, enforcing the
// 10-candidate bound from §3. A candidate Equal to one already held is
// folded in the same way as addLocalCandidate.
func (cl *CheckList) addRemoteCandidate(c Candidate) error {
	if i := indexOfEqual(cl.remoteCandidates, c); i >= 0 {
		if c.Priority() > cl.remoteCandidates[i].Priority() {
			cl.remoteCandidates[i] = c
		}
		return nil
	}
	if len(cl.remoteCandidates) >= maxCandidatesPerList {
		return ErrTooManyCandidates
	}
	cl.remoteCandidates = append(cl.remoteCandidates, c)
	return nil
}

// indexOfEqual returns the index of the first candidate in set Equal to
// c, or -1. Equal deliberately ignores Priority, so this is the same
// "already known" notion the real collaborator's gather path uses to
// fold a redundant candidate into the one it already has.
func indexOfEqual(set []Candidate, c Candidate) int {
	for i, existing := range set {
		if existing.Equal(c) {
			return i
		}
	}
	return -1
}

// findLocalCandidate returns the local candidate whose component and
// transport address match, or nil. Shared by §4.4 (receive-side lookup
// for a binding request) and §4.5 (receive-side lookup for a response).
func (cl *CheckList) findLocalCandidate(component uint16, addr TransportAddress) Candidate {
	for _, c := range cl.localCandidates {
		if c.Component() == component && c.TransportAddr().Equal(addr) {
			return c
		}
	}
	return nil
}

// findRemoteCandidate returns the remote candidate matching addr, or nil.
func (cl *CheckList) findRemoteCandidate(addr TransportAddress) Candidate {
	for _, c := range cl.remoteCandidates {
		if c.TransportAddr().Equal(addr) {
			return c
		}
	}
	return nil
}

// findPair returns the pair in checkList whose endpoints match
// (local, remote) under the duplicate-equality rule, or nil.
func (cl *CheckList) findPair(local, remote Candidate) *CandidatePair {
	for _, p := range cl.checkList {
		if p.matchesEndpoints(local, remote) {
			return p
		}
	}
	return nil
}

// findAnyPair searches all formed pairs, not just checkList — used by
// §4.5's valid-pair construction, which may need to find or create a pair
// that was pruned out of checkList but still lives in pairs.
func (cl *CheckList) findAnyPair(local, remote Candidate) *CandidatePair {
	for _, p := range cl.pairs {
		if p.matchesEndpoints(local, remote) {
			return p
		}
	}
	return nil
}

// enqueueTriggered appends p to the triggered-checks FIFO unless it is
// already queued (§3's "at most once" invariant).
func (cl *CheckList) enqueueTriggered(p *CandidatePair) {
	if cl.triggeredSet[p] {
		return
	}
	cl.triggeredQueue = append(cl.triggeredQueue, p)
	cl.triggeredSet[p] = true
}

// popTriggered removes and returns the head of the triggered-checks FIFO,
// or nil if empty.
func (cl *CheckList) popTriggered() *CandidatePair {
	if len(cl.triggeredQueue) == 0 {
		return nil
	}
	p := cl.triggeredQueue[0]
	cl.triggeredQueue = cl.triggeredQueue[1:]
	delete(cl.triggeredSet, p)
	return p
}

// removeFromTriggered drops p from the FIFO if present, preserving order
// of the remaining entries. Used by conclusion's redundant-check cleanup.
func (cl *CheckList) removeFromTriggered(p *CandidatePair) {
	if !cl.triggeredSet[p] {
		return
	}
	filtered := cl.triggeredQueue[:0]
	for _, q := range cl.triggeredQueue {
		if q != p {
			filtered = append(filtered, q)
		}
	}
	cl.triggeredQueue = filtered
	delete(cl.triggeredSet, p)
}

// insertValidPair inserts v into validList in descending priority order,
// dropping it if it duplicates an existing entry per §3's ValidPair rule.
func (cl *CheckList) insertValidPair(v *ValidPair) {
	for _, existing := range cl.validList {
		if v.duplicateOf(existing) {
			return
		}
	}
	i := sort.Search(len(cl.validList), func(i int) bool {
		return cl.validList[i].Valid.Priority < v.Valid.Priority
	})
	cl.validList = append(cl.validList, nil)
	copy(cl.validList[i+1:], cl.validList[i:])
	cl.validList[i] = v
}

// buildPairs implements §4.1 in full: form every matching-component pair,
// replace ServerReflexive locals with their base, prune duplicates, sort
// and truncate into checkList, derive foundations, and (for the first
// stream only) unfreeze the initial pair.
func (cl *CheckList) buildPairs() error {
	cl.pairs = nil

	for _, remote := range cl.remoteCandidates {
		for _, local := range cl.localCandidates {
			if local.Component() != remote.Component() {
				continue
			}
			if len(cl.pairs) >= maxPairsPerList {
				return ErrTooManyPairs
			}
			pairLocal := local
			if pairLocal.Type() == CandidateTypeServerReflexive {
				pairLocal = pairLocal.Base()
			}
			cl.pairs = append(cl.pairs, newCandidatePair(pairLocal, remote, cl.role))
		}
	}

	cl.pairs = pruneDuplicatePairs(cl.pairs)

	cl.checkList = append([]*CandidatePair{}, cl.pairs...)
	sort.SliceStable(cl.checkList, func(i, j int) bool {
		return cl.checkList[i].Priority > cl.checkList[j].Priority
	})
	if len(cl.checkList) > cl.maxConnectivityChecks {
		cl.checkList = cl.checkList[:cl.maxConnectivityChecks]
	}

	cl.foundations = make(map[PairFoundation]bool)
	for _, p := range cl.checkList {
		cl.foundations[p.foundation()] = true
	}

	if cl.firstStream {
		unfreezeInitialPair(cl.checkList)
	}

	return nil
}

// pruneDuplicatePairs drops duplicate pairs per §4.1: pairs are
// duplicates iff both endpoints compare equal in (type, taddr,
// component_id, priority); the higher-priority survivor wins, ties
// broken by list order (first seen wins).
func pruneDuplicatePairs(pairs []*CandidatePair) []*CandidatePair {
	out := make([]*CandidatePair, 0, len(pairs))
	for _, p := range pairs {
		dupIdx := -1
		for i, kept := range out {
			if samePairEndpoint(kept.Local, p.Local) && samePairEndpoint(kept.Remote, p.Remote) {
				dupIdx = i
				break
			}
		}
		if dupIdx < 0 {
			out = append(out, p)
			continue
		}
		if p.Priority > out[dupIdx].Priority {
			out[dupIdx] = p
		}
	}
	return out
}

// unfreezeInitialPair implements §4.1's "initial unfreeze" rule: among
// all pairs in checkList, find the one minimizing component_id and, for
// that component, maximizing priority; move it to Waiting.
func unfreezeInitialPair(checkList []*CandidatePair) {
	if len(checkList) == 0 {
		return
	}
	best := checkList[0]
	for _, p := range checkList[1:] {
		if p.Local.Component() < best.Local.Component() {
			best = p
			continue
		}
		if p.Local.Component() == best.Local.Component() && p.Priority > best.Priority {
			best = p
		}
	}
	best.setState(PairStateWaiting)
}

// recomputeAllPriorities recomputes every pair's priority under the
// current role — called on role flip per §4.4's role-conflict handling
// and §9's atomicity note (recompute before the next check is issued).
// It only ever touches the live Role field, never CheckRole: a role
// conflict on one stream must not rewrite the role another stream's
// in-flight pairs were checked under.
func (cl *CheckList) recomputeAllPriorities(role Role) {
	cl.role = role
	for _, p := range cl.pairs {
		p.Role = role
		p.recomputePriority()
	}
}

// Dump renders the check list and valid list for debug logging, mirroring
// the original ice_dump_checklist/ice_dump_valid_list helpers. It is never
// called on a hot path.
func (cl *CheckList) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "check list (%s, %d pairs):\n", cl.state, len(cl.checkList))
	for _, p := range cl.checkList {
		fmt.Fprintf(&b, "  %s\n", p)
	}
	fmt.Fprintf(&b, "valid list (%d pairs):\n", len(cl.validList))
	for _, v := range cl.validList {
		fmt.Fprintf(&b, "  %s\n", v.Valid)
	}
	return b.String()
}

// RegisterSuccessCallback installs the callback invoked exactly once when
// the check list completes (§6 CheckList API: register_success_cb).
func (cl *CheckList) RegisterSuccessCallback(cb func(ctx interface{}), ctx interface{}) error {
	if err := cl.ok(); err != nil {
		return err
	}
	cl.registerSuccessCallback(cb, ctx)
	return nil
}

// SetRemoteCredentials installs per-stream remote credentials, overriding
// the session defaults (§6 CheckList API: set_remote_credentials).
func (cl *CheckList) SetRemoteCredentials(ufrag, pwd string) error {
	if err := cl.ok(); err != nil {
		return err
	}
	cl.setRemoteCredentials(ufrag, pwd)
	return nil
}

// AddLocalCandidate builds and registers a local candidate of the given
// type (§6 CheckList API: add_local_candidate). base is ignored for Host
// and Relayed candidates, which are always self-based.
func (cl *CheckList) AddLocalCandidate(t CandidateType, ip string, port uint16, component uint16, base Candidate) (Candidate, error) {
	if err := cl.ok(); err != nil {
		return nil, err
	}
	var c Candidate
	var err error
	switch t {
	case CandidateTypeHost:
		c, err = NewCandidateHost(CandidateHostConfig{IP: ip, Port: port, Component: component})
	case CandidateTypeServerReflexive:
		c, err = NewCandidateServerReflexive(CandidateServerReflexiveConfig{IP: ip, Port: port, Component: component, Base: base})
	case CandidateTypeRelayed:
		c, err = NewCandidateRelayed(CandidateRelayedConfig{IP: ip, Port: port, Component: component})
	case CandidateTypePeerReflexive:
		c, err = NewCandidatePeerReflexive(CandidatePeerReflexiveConfig{IP: ip, Port: port, Component: component, Base: base})
	default:
		return nil, ErrAddressParseFailed
	}
	if err != nil {
		return nil, err
	}
	if err := cl.addLocalCandidate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddRemoteCandidate builds and registers a remote candidate carrying the
// peer's own signaled priority and foundation (§6 CheckList API:
// add_remote_candidate).
func (cl *CheckList) AddRemoteCandidate(t CandidateType, ip string, port uint16, component uint16, priority uint32, foundation string) (Candidate, error) {
	if err := cl.ok(); err != nil {
		return nil, err
	}
	var c Candidate
	var err error
	switch t {
	case CandidateTypeHost:
		c, err = NewCandidateHost(CandidateHostConfig{IP: ip, Port: port, Component: component, Priority: priority})
	case CandidateTypeServerReflexive:
		c, err = NewCandidateServerReflexive(CandidateServerReflexiveConfig{IP: ip, Port: port, Component: component, Priority: priority})
	case CandidateTypeRelayed:
		c, err = NewCandidateRelayed(CandidateRelayedConfig{IP: ip, Port: port, Component: component, Priority: priority})
	case CandidateTypePeerReflexive:
		c, err = NewCandidatePeerReflexive(CandidatePeerReflexiveConfig{IP: ip, Port: port, Component: component, Priority: priority, Foundation: foundation})
	default:
		return nil, ErrAddressParseFailed
	}
	if err != nil {
		return nil, err
	}
	if foundation != "" {
		if setter, ok := c.(foundationSetter); ok {
			setter.setFoundation(foundation)
		}
	}
	if err := cl.addRemoteCandidate(c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetRemoteAddrAndPortsFromValidPairs implements the §6 CheckList API of
// the same name. ok is false both when the check list has not yet
// Completed and when it has since been destroyed.
func (cl *CheckList) GetRemoteAddrAndPortsFromValidPairs() (addr string, rtpPort, rtcpPort uint16, ok bool) {
	if cl.ok() != nil {
		return "", 0, 0, false
	}
	return cl.remoteAddrAndPorts()
}

// remoteAddrAndPorts implements the §6 CheckList API
// get_remote_addr_and_ports_from_valid_pairs: it only returns a result
// once the check list has Completed, reading the nominated valid pairs
// for RTP and RTCP.
func (cl *CheckList) remoteAddrAndPorts() (addr string, rtpPort, rtcpPort uint16, ok bool) {
	if cl.state != CheckListCompleted {
		return "", 0, 0, false
	}
	for _, v := range cl.validList {
		if !v.Valid.IsNominated {
			continue
		}
		taddr := v.Valid.Remote.TransportAddr()
		addr = taddr.IP
		switch v.Valid.Remote.Component() {
		case ComponentRTP:
			rtpPort = taddr.Port
		case ComponentRTCP:
			rtcpPort = taddr.Port
		}
	}
	if addr == "" {
		return "", 0, 0, false
	}
	return addr, rtpPort, rtcpPort, true
}
