package ice

import (
	"github.com/pion/logging"
)

// SessionConfig configures a new Session (spec.md §3, §6's configuration
// options table).
type SessionConfig struct {
	Role Role

	// LoggerFactory derives a per-stream logger, matching the teacher's
	// convention of deriving scoped loggers rather than sharing one.
	LoggerFactory logging.LoggerFactory

	Codec     StunCodec
	Transport Transport
}

// Session owns every media stream's CheckList for one ICE negotiation
// (spec.md §3).
type Session struct {
	streams []*CheckList

	role  Role
	state CheckListState

	tieBreaker uint64

	localUfrag, localPwd   string
	remoteUfrag, remotePwd string

	taMs                  uint32
	keepaliveTimeoutS     uint8
	maxConnectivityChecks int

	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger

	codec     StunCodec
	transport Transport

	closed bool
}

// New creates a Session with freshly generated local credentials and
// tie-breaker.
func New(config SessionConfig) (*Session, error) {
	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	codec := config.Codec
	if codec == nil {
		codec = NewStunCodec()
	}

	ufrag, err := generateUfrag()
	if err != nil {
		return nil, err
	}
	pwd, err := generatePwd()
	if err != nil {
		return nil, err
	}
	tieBreaker, err := generateTieBreaker()
	if err != nil {
		return nil, err
	}

	return &Session{
		role:                  config.Role,
		state:                 CheckListRunning,
		tieBreaker:            tieBreaker,
		localUfrag:            ufrag,
		localPwd:              pwd,
		taMs:                  defaultTaMs,
		keepaliveTimeoutS:     minKeepaliveTimeoutS,
		maxConnectivityChecks: defaultMaxConnectivityChecks,
		loggerFactory:         loggerFactory,
		log:                   loggerFactory.NewLogger("ice"),
		codec:                 codec,
		transport:             config.Transport,
	}, nil
}

// ok reports ErrSessionClosed once Destroy has run; every other public
// method except Destroy itself checks it first, mirroring the teacher's own guard-on-every-call
// idiom for a closed agent.
func (s *Session) ok() error {
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

// Destroy marks every stream closed, then releases them. The session
// must not be used afterward; any stale *CheckList a caller kept a
// reference to starts reporting ErrCheckListClosed instead of operating
// on a torn-down session.
func (s *Session) Destroy() {
	for _, cl := range s.streams {
		cl.closed = true
	}
	s.streams = nil
	s.closed = true
}

// SetRole sets the session role; it does not recompute existing pair
// priorities — use the role-conflict path (§4.4/§4.7) for that, which
// calls recomputeAllPriorities directly.
func (s *Session) SetRole(role Role) error {
	if err := s.ok(); err != nil {
		return err
	}
	s.role = role
	for _, cl := range s.streams {
		cl.role = role
	}
	return nil
}

// SetLocalCredentials replaces local_ufrag/local_pwd. Per §5, this must
// only be called while the session is not actively checking; the caller
// is responsible for that invariant, as the core has no Stopped state of
// its own to enforce it against.
func (s *Session) SetLocalCredentials(ufrag, pwd string) error {
	if err := s.ok(); err != nil {
		return err
	}
	s.localUfrag = ufrag
	s.localPwd = pwd
	for _, cl := range s.streams {
		cl.localUfrag = ufrag
		cl.localPwd = pwd
	}
	return nil
}

// SetRemoteCredentials replaces remote_ufrag/remote_pwd wholesale, as on
// a (re-)offer.
func (s *Session) SetRemoteCredentials(ufrag, pwd string) error {
	if err := s.ok(); err != nil {
		return err
	}
	s.remoteUfrag = ufrag
	s.remotePwd = pwd
	for _, cl := range s.streams {
		cl.sessionRemoteUfrag = ufrag
		cl.sessionRemotePwd = pwd
	}
	return nil
}

// SetMaxConnectivityChecks caps check_list length for every stream.
func (s *Session) SetMaxConnectivityChecks(max uint8) error {
	if err := s.ok(); err != nil {
		return err
	}
	s.maxConnectivityChecks = int(max)
	for _, cl := range s.streams {
		cl.maxConnectivityChecks = int(max)
	}
	return nil
}

// SetKeepaliveTimeout sets keepalive_timeout_s, clamped to a 15-second
// floor per spec.md §3/§8.
func (s *Session) SetKeepaliveTimeout(seconds uint8) error {
	if err := s.ok(); err != nil {
		return err
	}
	if seconds < minKeepaliveTimeoutS {
		seconds = minKeepaliveTimeoutS
	}
	s.keepaliveTimeoutS = seconds
	for _, cl := range s.streams {
		cl.keepaliveTimeoutS = seconds
	}
	return nil
}

// AddCheckList creates and registers a new CheckList for the next
// stream index. Only the first stream added gets the initial-unfreeze
// treatment in PairCandidates (§4.1).
func (s *Session) AddCheckList() (*CheckList, error) {
	if err := s.ok(); err != nil {
		return nil, err
	}
	cl := newCheckList(s.loggerFactory.NewLogger("ice"), s.codec, s.transport)
	cl.streamIndex = len(s.streams)
	cl.firstStream = len(s.streams) == 0
	cl.role = s.role
	cl.tieBreaker = s.tieBreaker
	cl.localUfrag = s.localUfrag
	cl.localPwd = s.localPwd
	cl.sessionRemoteUfrag = s.remoteUfrag
	cl.sessionRemotePwd = s.remotePwd
	cl.taMs = s.taMs
	cl.keepaliveTimeoutS = s.keepaliveTimeoutS
	cl.maxConnectivityChecks = s.maxConnectivityChecks
	cl.onRoleFlip = s.propagateRoleFlip

	s.streams = append(s.streams, cl)
	return cl, nil
}

// propagateRoleFlip is installed as every CheckList's onRoleFlip so a
// role conflict discovered on one stream's check list is reflected
// session-wide before the next tick (§9's atomicity note).
func (s *Session) propagateRoleFlip(newRole Role) {
	s.role = newRole
	for _, cl := range s.streams {
		cl.recomputeAllPriorities(newRole)
	}
}

// ComputeCandidatesFoundations assigns foundations to every local
// candidate across every stream: candidates sharing (type, base.ip) get
// the same foundation token (spec.md §3's foundation equivalence rule).
// Remote candidates are never touched here — their foundation arrives
// via add_remote_candidate's explicit parameter (§6), signaled by the
// peer, not computed locally.
func (s *Session) ComputeCandidatesFoundations() error {
	if err := s.ok(); err != nil {
		return err
	}
	type key struct {
		t    CandidateType
		baseIP string
	}
	assigned := make(map[key]string)

	assign := func(c Candidate) error {
		k := key{t: c.Type(), baseIP: c.Base().TransportAddr().IP}
		foundation, ok := assigned[k]
		if !ok {
			var err error
			foundation, err = generateFoundation()
			if err != nil {
				return err
			}
			assigned[k] = foundation
		}
		if setter, ok := c.(foundationSetter); ok {
			setter.setFoundation(foundation)
		}
		return nil
	}

	for _, cl := range s.streams {
		for _, c := range cl.localCandidates {
			if err := assign(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// ChooseDefaultCandidates selects, per component and per stream, the
// candidate with the highest type preference (Host > ServerReflexive >
// Relayed; PeerReflexive is never a default since it is only learned
// mid-negotiation) and marks it is_default (SPEC_FULL.md §C.2).
func (s *Session) ChooseDefaultCandidates() error {
	if err := s.ok(); err != nil {
		return err
	}
	for _, cl := range s.streams {
		chooseDefaultFor(cl.localCandidates)
	}
	return nil
}

func chooseDefaultFor(candidates []Candidate) {
	best := make(map[uint16]Candidate)
	for _, c := range candidates {
		if c.Type() == CandidateTypePeerReflexive {
			continue
		}
		cur, ok := best[c.Component()]
		if !ok || defaultPreference(c.Type()) > defaultPreference(cur.Type()) {
			best[c.Component()] = c
		}
	}
	for _, c := range best {
		c.setDefault(true)
	}
}

// defaultPreference orders candidate types for default-candidate
// selection: Host > ServerReflexive > Relayed (PeerReflexive excluded —
// it is never chosen as a default).
func defaultPreference(t CandidateType) int {
	switch t {
	case CandidateTypeHost:
		return 3
	case CandidateTypeServerReflexive:
		return 2
	case CandidateTypeRelayed:
		return 1
	default:
		return 0
	}
}

// SetBaseForSrflxCandidates rewrites every ServerReflexive local
// candidate's base to the Host candidate discovered on the same
// component, matching the gathering collaborator's usual handoff before
// pairing (§3: "ServerReflexive candidates point to the Host candidate
// they derive from").
func (s *Session) SetBaseForSrflxCandidates() error {
	if err := s.ok(); err != nil {
		return err
	}
	for _, cl := range s.streams {
		hostByComponent := make(map[uint16]Candidate)
		for _, c := range cl.localCandidates {
			if c.Type() == CandidateTypeHost {
				hostByComponent[c.Component()] = c
			}
		}
		for _, c := range cl.localCandidates {
			if c.Type() != CandidateTypeServerReflexive {
				continue
			}
			if host, ok := hostByComponent[c.Component()]; ok {
				if setter, ok := c.(baseSetter); ok {
					setter.setBase(host)
				}
			}
		}
	}
	return nil
}

// PairCandidates runs §4.1's pair formation and pruning on every stream.
func (s *Session) PairCandidates() error {
	if err := s.ok(); err != nil {
		return err
	}
	for _, cl := range s.streams {
		if err := cl.buildPairs(); err != nil {
			return err
		}
	}
	return nil
}

// foundationSetter and baseSetter let the session mutate fields that are
// otherwise read-only through the Candidate interface, without exposing
// mutation to ordinary callers.
type foundationSetter interface {
	setFoundation(string)
}

type baseSetter interface {
	setBase(Candidate)
}
