package ice

// CandidateHost is a candidate gathered directly from a local interface.
// It is always self-based (spec.md §3).
type CandidateHost struct {
	candidateBase
}

// CandidateHostConfig is the config required to create a new CandidateHost.
type CandidateHostConfig struct {
	CandidateID string
	IP          string
	Port        uint16
	Component   uint16

	// Priority overrides the computed local priority; set it when this
	// host candidate was signaled by the remote peer rather than
	// gathered locally. Zero means "compute per §3".
	Priority uint32
}

// NewCandidateHost creates a new host candidate. Its base is itself.
func NewCandidateHost(config CandidateHostConfig) (*CandidateHost, error) {
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
		priority = computeLocalPriority(CandidateTypeHost, config.Component)
	}

	c := &CandidateHost{
		candidateBase: candidateBase{
			id:            id,
			candidateType: CandidateTypeHost,
			component:     config.Component,
			taddr:         TransportAddress{IP: config.IP, Port: config.Port},
			priority:      priority,
		},
	}
	c.base = c
	return c, nil
}
