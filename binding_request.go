package ice

import (
	"github.com/pion/stun/v2"
)

// sendBindingRequest implements §4.3's pre-send logic and STUN message
// composition, then dispatches through the Transport.
func (cl *CheckList) sendBindingRequest(p *CandidatePair, nowMs uint64) {
	if p.State == PairStateInProgress && p.WaitTransactionTimeout {
		p.WaitTransactionTimeout = false
		p.setState(PairStateWaiting)
		cl.enqueueTriggered(p)
		return
	}

	if p.State == PairStateInProgress {
		p.Retransmissions++
		if p.Retransmissions > ICEMaxRetransmissions {
			p.setState(PairStateFailed)
			cl.log.Infof("pair %s -> %s failed after %d retransmissions", p.Local, p.Remote, p.Retransmissions)
			return
		}
		p.RtoMs *= 2
		p.TransmissionTimeMs = nowMs
	} else {
		p.RtoMs = defaultRtoMs
		p.Retransmissions = 0
		p.Role = cl.role
		p.CheckRole = cl.role
		txID := stun.NewTransactionID()
		p.TransactionID = txID
		p.TransmissionTimeMs = nowMs
		p.setState(PairStateInProgress)
	}

	msg := cl.buildBindingRequest(p)
	cl.send(p.Local.Component(), msg, p.Remote.TransportAddr())
}

// buildBindingRequest assembles the outbound STUN message for p per
// §4.3's attribute list.
func (cl *CheckList) buildBindingRequest(p *CandidatePair) *StunMessage {
	peerReflexivePriority := (p.Local.Priority() & 0x00FFFFFF) | (CandidateTypePeerReflexive.Preference() << 24)

	msg := &StunMessage{
		Class:         stun.ClassRequest,
		Method:        stun.MethodBinding,
		TransactionID: p.TransactionID,

		HasUsername: true,
		Username:    cl.effectiveRemoteUfrag() + ":" + cl.localUfrag,

		HasMessageIntegrity: true,
		HasFingerprint:      true,

		HasPriority: true,
		Priority:    peerReflexivePriority,

		HasUseCandidate: cl.role == Controlling && p.IsNominated,

		HasControl: true,
		Control:    AttrControl{Role: cl.role, TieBreaker: cl.tieBreaker},
	}
	return msg
}

// send encodes msg and writes it to dest through the socket for
// component, per §6's Transport interface.
func (cl *CheckList) send(component uint16, msg *StunMessage, dest TransportAddress) {
	key := []byte(cl.effectiveRemotePwd())
	b, err := cl.codec.Encode(msg, key)
	if err != nil {
		cl.log.Warnf("encode failed: %v", err)
		return
	}

	sock, err := cl.socketForComponent(component)
	if err != nil {
		cl.log.Warnf("no socket for component %d: %v", component, err)
		return
	}

	if err := cl.transport.SendPacket(sock, b, dest.IP, dest.Port); err != nil {
		cl.log.Warnf("send failed: %v", err)
	}
}

// sendKeepalive sends a STUN binding indication (no MESSAGE-INTEGRITY,
// FINGERPRINT present) to the valid pair's remote, per §4.8.
func (cl *CheckList) sendKeepalive(valid *CandidatePair) {
	msg := &StunMessage{
		Class:          stun.ClassIndication,
		Method:         stun.MethodBinding,
		TransactionID:  stun.NewTransactionID(),
		HasFingerprint: true,
	}
	cl.send(valid.Local.Component(), msg, valid.Remote.TransportAddr())
}

// socketForComponent selects the send socket for component 1 (RTP) or 2
// (RTCP); any other value aborts per §4.3.
func (cl *CheckList) socketForComponent(component uint16) (Socket, error) {
	switch component {
	case ComponentRTP:
		return cl.transport.GetRTPSocket(cl.streamIndex)
	case ComponentRTCP:
		return cl.transport.GetRTCPSocket(cl.streamIndex)
	default:
		return nil, ErrUnknownComponent
	}
}
