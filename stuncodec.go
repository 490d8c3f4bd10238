package ice

import (
	"github.com/pion/stun/v2"
)

// StunMessage is the decoded form of a STUN message as the scheduler and
// binding handlers consume it. It carries presence flags alongside each
// optional attribute because "absent" and "zero" are distinct outcomes for
// every one of them (spec.md §6).
type StunMessage struct {
	Class         stun.MessageClass
	Method        stun.Method
	TransactionID [stun.TransactionIDSize]byte

	HasUsername bool
	Username    string

	HasMessageIntegrity bool

	HasFingerprint bool

	HasPriority bool
	Priority    uint32

	HasUseCandidate bool

	HasControl bool
	Control    AttrControl

	HasXORMappedAddress bool
	MappedIP            string
	MappedPort          uint16

	HasErrorCode bool
	ErrorClass   byte
	ErrorNumber  byte
	ErrorReason  string
}

// IsRequest, IsIndication, IsSuccess, and IsError classify the decoded
// message by its STUN class.
func (m *StunMessage) IsRequest() bool     { return m.Class == stun.ClassRequest }
func (m *StunMessage) IsIndication() bool  { return m.Class == stun.ClassIndication }
func (m *StunMessage) IsSuccess() bool     { return m.Class == stun.ClassSuccessResponse }
func (m *StunMessage) IsError() bool       { return m.Class == stun.ClassErrorResponse }

// ErrorCode folds the class/number pair back into the usual three-digit
// STUN error code (e.g. 487), matching stun.CodeRoleConflict and friends.
func (m *StunMessage) ErrorCode() int {
	return int(m.ErrorClass)*100 + int(m.ErrorNumber)
}

// StunCodec is the external collaborator responsible for wire encoding,
// MESSAGE-INTEGRITY, and FINGERPRINT (spec.md §6). The scheduler and
// binding handlers only ever see a *StunMessage; they never touch raw
// bytes or HMACs directly.
type StunCodec interface {
	// Parse decodes a raw STUN packet. It returns ErrMalformedRequest if
	// the packet is not a well-formed STUN message.
	Parse(data []byte) (*StunMessage, error)

	// Encode serializes msg, adding MESSAGE-INTEGRITY (keyed by key, when
	// HasMessageIntegrity is set) and FINGERPRINT (when HasFingerprint is
	// set), in that order, per RFC 5389 §15.
	Encode(msg *StunMessage, key []byte) ([]byte, error)

	// VerifyIntegrityShortTerm checks the MESSAGE-INTEGRITY attribute of
	// a raw, still-undecoded packet against the short-term key, per RFC
	// 5389 §15.4 — the HMAC covers the message with its length field
	// temporarily reduced by 8 bytes to exclude any trailing FINGERPRINT.
	VerifyIntegrityShortTerm(data []byte, key []byte) bool
}

// pionStunCodec is the concrete StunCodec backed by github.com/pion/stun/v2.
type pionStunCodec struct{}

// NewStunCodec returns the default StunCodec.
func NewStunCodec() StunCodec {
	return pionStunCodec{}
}

func (pionStunCodec) Parse(data []byte) (*StunMessage, error) {
	raw := &stun.Message{}
	if err := stun.Decode(data, raw); err != nil {
		return nil, ErrMalformedRequest
	}

	out := &StunMessage{
		Class:         raw.Type.Class,
		Method:        raw.Type.Method,
		TransactionID: raw.TransactionID,
	}

	var username stun.Username
	if err := username.GetFrom(raw); err == nil {
		out.HasUsername = true
		out.Username = username.String()
	}

	out.HasMessageIntegrity = raw.Contains(stun.AttrMessageIntegrity)
	out.HasFingerprint = raw.Contains(stun.AttrFingerprint)

	var priority PriorityAttr
	if err := priority.GetFrom(raw); err == nil {
		out.HasPriority = true
		out.Priority = uint32(priority)
	}

	out.HasUseCandidate = UseCandidateAttr{}.IsSet(raw)

	var control AttrControl
	if err := control.GetFrom(raw); err == nil {
		out.HasControl = true
		out.Control = control
	}

	var xorAddr stun.XORMappedAddress
	if err := xorAddr.GetFrom(raw); err == nil {
		out.HasXORMappedAddress = true
		out.MappedIP = xorAddr.IP.String()
		out.MappedPort = uint16(xorAddr.Port)
	}

	var errCode stun.ErrorCodeAttribute
	if err := errCode.GetFrom(raw); err == nil {
		out.HasErrorCode = true
		out.ErrorClass = byte(errCode.Code / 100)
		out.ErrorNumber = byte(errCode.Code % 100)
		out.ErrorReason = string(errCode.Reason)
	}

	return out, nil
}

func (pionStunCodec) Encode(msg *StunMessage, key []byte) ([]byte, error) {
	raw := new(stun.Message)
	setters := []stun.Setter{
		stun.NewType(msg.Method, msg.Class),
		stun.NewTransactionIDSetter(msg.TransactionID),
	}

	if msg.HasUsername {
		setters = append(setters, stun.NewUsername(msg.Username))
	}
	if msg.HasPriority {
		setters = append(setters, PriorityAttr(msg.Priority))
	}
	if msg.HasUseCandidate {
		setters = append(setters, UseCandidateAttr{})
	}
	if msg.HasControl {
		setters = append(setters, msg.Control)
	}
	if msg.HasXORMappedAddress {
		setters = append(setters, &stun.XORMappedAddress{
			IP:   parseIPOrZero(msg.MappedIP),
			Port: int(msg.MappedPort),
		})
	}
	if msg.HasErrorCode {
		setters = append(setters, &stun.ErrorCodeAttribute{
			Code:   stun.ErrorCode(int(msg.ErrorClass)*100 + int(msg.ErrorNumber)),
			Reason: []byte(msg.ErrorReason),
		})
	}

	if err := raw.Build(setters...); err != nil {
		return nil, err
	}

	if msg.HasMessageIntegrity {
		integrity := stun.NewShortTermIntegrity(string(key))
		if err := integrity.AddTo(raw); err != nil {
			return nil, err
		}
	}
	if msg.HasFingerprint {
		if err := stun.Fingerprint.AddTo(raw); err != nil {
			return nil, err
		}
	}

	return raw.Raw, nil
}

func (pionStunCodec) VerifyIntegrityShortTerm(data []byte, key []byte) bool {
	raw := &stun.Message{}
	if err := stun.Decode(data, raw); err != nil {
		return false
	}
	integrity := stun.NewShortTermIntegrity(string(key))
	return integrity.Check(raw) == nil
}
