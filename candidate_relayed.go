package ice

// CandidateRelayed is a candidate allocated on a TURN server. The core
// treats it as an opaque endpoint — the allocation and refresh lifecycle
// belongs to the (out of scope) gathering collaborator — so it is
// self-based like a host candidate, just with the lowest type preference.
type CandidateRelayed struct {
	candidateBase
}

// CandidateRelayedConfig is the config required to create a new
// CandidateRelayed.
type CandidateRelayedConfig struct {
	CandidateID string
	IP          string
	Port        uint16
	Component   uint16
	Priority    uint32
}

// NewCandidateRelayed creates a new relayed candidate.
func NewCandidateRelayed(config CandidateRelayedConfig) (*CandidateRelayed, error) {
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
		priority = computeLocalPriority(CandidateTypeRelayed, config.Component)
	}

	c := &CandidateRelayed{
		candidateBase: candidateBase{
			id:            id,
			candidateType: CandidateTypeRelayed,
			component:     config.Component,
			taddr:         TransportAddress{IP: config.IP, Port: config.Port},
			priority:      priority,
		},
	}
	c.base = c
	return c, nil
}
