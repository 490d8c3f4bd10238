package ice

// Candidate represents one potential endpoint for a media stream
// component, per spec.md §3.
type Candidate interface {
	// ID is an opaque identifier, unique within a CheckList, used only
	// for logging and equality shortcuts.
	ID() string

	Type() CandidateType
	Component() uint16
	TransportAddr() TransportAddress
	Foundation() string

	// Priority is the RFC 5245 §4.1.2.1 candidate priority:
	// (type_pref << 24) | (local_pref << 8) | (256 - component_id).
	Priority() uint32

	// Base is the candidate this one sends packets from. Host and
	// Relayed candidates are self-based.
	Base() Candidate

	IsDefault() bool

	// Equal compares (type, taddr, component) — the identity add_local_
	// candidate/add_remote_candidate use to fold a redundant candidate
	// into the one already held rather than growing the list. It
	// intentionally ignores Foundation, IsDefault and, unlike the pair
	// duplicate rule of §4.1, Priority: a re-announced candidate at a
	// different priority still refers to the same endpoint.
	Equal(other Candidate) bool

	String() string

	setDefault(v bool)
}
