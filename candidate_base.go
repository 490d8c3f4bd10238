package ice

import "fmt"

// candidateBase carries the fields and methods shared by every Candidate
// type; concrete types (CandidateHost, CandidateServerReflexive, ...)
// embed it and add only their own constructor. Socket I/O is not a
// candidate responsibility here — it belongs to the Transport
// collaborator (§6) — so, unlike a self-contained agent's candidate,
// candidateBase carries no connection or receive loop.
type candidateBase struct {
	id            string
	candidateType CandidateType
	component     uint16
	taddr         TransportAddress
	foundation    string
	base          Candidate
	isDefault     bool

	// priority is fixed at construction time. Local candidates compute
	// it from §3's formula; remote candidates carry whatever value the
	// peer signaled (via SDP or, for a learned peer-reflexive, the
	// request's PRIORITY attribute) — the core never recomputes a
	// priority it did not itself assign.
	priority uint32
}

func (c *candidateBase) ID() string                     { return c.id }
func (c *candidateBase) Type() CandidateType             { return c.candidateType }
func (c *candidateBase) Component() uint16               { return c.component }
func (c *candidateBase) TransportAddr() TransportAddress { return c.taddr }
func (c *candidateBase) Foundation() string              { return c.foundation }
func (c *candidateBase) Base() Candidate                 { return c.base }
func (c *candidateBase) IsDefault() bool                 { return c.isDefault }
func (c *candidateBase) setDefault(v bool)               { c.isDefault = v }
func (c *candidateBase) setFoundation(f string)          { c.foundation = f }
func (c *candidateBase) setBase(b Candidate)             { c.base = b }

// Priority returns the candidate's fixed priority (see the priority
// field doc above).
func (c *candidateBase) Priority() uint32 { return c.priority }

// computeLocalPriority implements spec.md §3's formula for a candidate
// this agent itself gathered:
//
//	(type_pref << 24) | (local_pref << 8) | (256 - component_id)
//
// local_pref is fixed at 65535: the core never gathers more than one
// candidate of a given type from a given base, so there is nothing to
// break ties on within a type.
func computeLocalPriority(t CandidateType, component uint16) uint32 {
	return t.Preference()<<24 |
		uint32(defaultLocalPreference)<<8 |
		uint32(256-component)
}

// Equal compares the identity used for duplicate detection: type,
// transport address and component — not foundation, not base.
func (c *candidateBase) Equal(other Candidate) bool {
	return c.candidateType == other.Type() &&
		c.component == other.Component() &&
		c.taddr.Equal(other.TransportAddr())
}

func (c *candidateBase) String() string {
	baseStr := ""
	if c.base != nil && c.base != Candidate(c) {
		baseStr = fmt.Sprintf(" base=%s", c.base.TransportAddr())
	}
	return fmt.Sprintf("%s %s component=%d foundation=%s%s", c.candidateType, c.taddr, c.component, c.foundation, baseStr)
}
