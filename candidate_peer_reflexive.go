package ice

// CandidatePeerReflexive is learned either as a remote, from a received
// binding request whose source address matches no known remote candidate
// (spec.md §4.4), or as a local, from a response whose XOR-MAPPED-ADDRESS
// matches no known local candidate (§4.5). A local one's base is the local
// candidate of the pair that was checked; without a Base it is self-based.
type CandidatePeerReflexive struct {
	candidateBase
}

// CandidatePeerReflexiveConfig is the config required to create a new
// CandidatePeerReflexive.
type CandidatePeerReflexiveConfig struct {
	CandidateID string
	IP          string
	Port        uint16
	Component   uint16
	Foundation  string
	Base        Candidate

	// Priority overrides the computed local priority. A peer-reflexive
	// candidate learned from an inbound request (§4.4) carries whatever
	// priority the peer signaled in its PRIORITY attribute; one
	// discovered from our own XOR-MAPPED-ADDRESS (§4.5) computes its own
	// per §3, so leave this zero there.
	Priority uint32
}

// NewCandidatePeerReflexive creates a new peer-reflexive candidate.
func NewCandidatePeerReflexive(config CandidatePeerReflexiveConfig) (*CandidatePeerReflexive, error) {
	if !validIP(config.IP) {
		return nil, ErrAddressParseFailed
	}

	id := config.CandidateID
	if id == "" {
		var err error
		id, err = generateID()
		if err != nil {
			return nil, err
		}
	}

	foundation := config.Foundation
	if foundation == "" {
		var err error
		foundation, err = generateFoundation()
		if err != nil {
			return nil, err
		}
	}

	priority := config.Priority
	if priority == 0 {
		priority = computeLocalPriority(CandidateTypePeerReflexive, config.Component)
	}

	c := &CandidatePeerReflexive{
		candidateBase: candidateBase{
			id:            id,
			candidateType: CandidateTypePeerReflexive,
			component:     config.Component,
			taddr:         TransportAddress{IP: config.IP, Port: config.Port},
			foundation:    foundation,
			base:          config.Base,
			priority:      priority,
		},
	}
	if c.base == nil {
		c.base = c
	}
	return c, nil
}
