package ice

import (
	"encoding/binary"

	"github.com/pion/stun/v2"
)

// PriorityAttr wraps the PRIORITY attribute (RFC 5245 §15.1), which has no
// dedicated type in pion/stun — the codec's own candidate-attribute package
// always carried its ICE-specific attributes on top of the bare STUN
// library, so this module does the same.
type PriorityAttr uint32

// AddTo adds PRIORITY to the message.
func (p PriorityAttr) AddTo(m *stun.Message) error {
	v := make([]byte, 4)
	binary.BigEndian.PutUint32(v, uint32(p))
	m.Add(stun.AttrPriority, v)
	return nil
}

// GetFrom decodes PRIORITY from the message.
func (p *PriorityAttr) GetFrom(m *stun.Message) error {
	v, err := m.Get(stun.AttrPriority)
	if err != nil {
		return err
	}
	if len(v) != 4 {
		return ErrMalformedRequest
	}
	*p = PriorityAttr(binary.BigEndian.Uint32(v))
	return nil
}

// UseCandidateAttr represents the zero-length USE-CANDIDATE attribute
// (RFC 5245 §15.3).
type UseCandidateAttr struct{}

// AddTo adds USE-CANDIDATE to the message.
func (UseCandidateAttr) AddTo(m *stun.Message) error {
	m.Add(stun.AttrUseCandidate, nil)
	return nil
}

// IsSet reports whether m carries USE-CANDIDATE.
func (UseCandidateAttr) IsSet(m *stun.Message) bool {
	return m.Contains(stun.AttrUseCandidate)
}

// AttrControl carries the 64-bit tie-breaker of either ICE-CONTROLLING or
// ICE-CONTROLLED (RFC 5245 §7.1.2.1, §15.4, §15.5); both attributes share a
// wire shape, so one type serves both by attribute number.
type AttrControl struct {
	Role       Role
	TieBreaker uint64
}

// AddTo adds ICE-CONTROLLING or ICE-CONTROLLED, depending on Role, to the
// message.
func (a AttrControl) AddTo(m *stun.Message) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, a.TieBreaker)
	if a.Role == Controlling {
		m.Add(stun.AttrICEControlling, v)
	} else {
		m.Add(stun.AttrICEControlled, v)
	}
	return nil
}

// GetFrom decodes whichever of ICE-CONTROLLING/ICE-CONTROLLED is present.
// It returns ErrMalformedRequest if both or neither are present.
func (a *AttrControl) GetFrom(m *stun.Message) error {
	controlling := m.Contains(stun.AttrICEControlling)
	controlled := m.Contains(stun.AttrICEControlled)
	if controlling == controlled {
		return ErrMalformedRequest
	}
	attr := stun.AttrICEControlled
	role := Controlled
	if controlling {
		attr = stun.AttrICEControlling
		role = Controlling
	}
	v, err := m.Get(attr)
	if err != nil {
		return err
	}
	if len(v) != 8 {
		return ErrMalformedRequest
	}
	a.Role = role
	a.TieBreaker = binary.BigEndian.Uint64(v)
	return nil
}
