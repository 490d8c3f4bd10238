package ice

// CandidateServerReflexive is a candidate discovered via a STUN server
// during gathering. A local one always points back at the Host candidate
// it was discovered through as its Base (spec.md §3), which is what lets
// "replace base" pairing (§4.1) rewrite the pair's local endpoint before
// pruning; a remote one is opaque to us and is left self-based, since
// §4.1 only rewrites the local side.
type CandidateServerReflexive struct {
	candidateBase
}

// CandidateServerReflexiveConfig is the config required to create a new
// CandidateServerReflexive.
type CandidateServerReflexiveConfig struct {
	CandidateID string
	IP          string
	Port        uint16
	Component   uint16
	Base        Candidate
	Priority    uint32
}

// NewCandidateServerReflexive creates a new server-reflexive candidate.
func NewCandidateServerReflexive(config CandidateServerReflexiveConfig) (*CandidateServerReflexive, error) {
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

	priority := config.Priority
	if priority == 0 {
		priority = computeLocalPriority(CandidateTypeServerReflexive, config.Component)
	}

	c := &CandidateServerReflexive{
		candidateBase: candidateBase{
			id:            id,
			candidateType: CandidateTypeServerReflexive,
			component:     config.Component,
			taddr:         TransportAddress{IP: config.IP, Port: config.Port},
			base:          config.Base,
			priority:      priority,
		},
	}
	if c.base == nil {
		c.base = c
	}
	return c, nil
}
