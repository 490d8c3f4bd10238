package ice

import "strings"

// InboundPacket is one datagram the transport delivered to the core, per
// §5's single-ticker event-queue model.
type InboundPacket struct {
	Component  uint16
	SourceAddr TransportAddress
	LocalAddr  TransportAddress
	Data       []byte

	// NowMs is the ticker time the event was dequeued at; the core
	// never reads a wall clock directly (§5).
	NowMs uint64
}

// HandleStunPacket dispatches an inbound STUN packet to the request,
// response, or error-response path by message class, per the §6
// CheckList API's handle_stun_packet(event).
func (cl *CheckList) HandleStunPacket(pkt InboundPacket) {
	if cl.closed {
		return
	}
	msg, err := cl.codec.Parse(pkt.Data)
	if err != nil {
		cl.log.Debugf("dropping malformed stun packet: %v", err)
		return
	}

	switch {
	case msg.IsRequest():
		cl.handleBindingRequest(pkt, msg)
	case msg.IsSuccess():
		cl.handleBindingResponse(pkt, msg)
	case msg.IsError():
		cl.handleErrorResponse(pkt, msg)
	default:
		// Indications (e.g. keepalives) require no response.
	}
}

// handleBindingRequest implements §4.4 in full.
func (cl *CheckList) handleBindingRequest(pkt InboundPacket, msg *StunMessage) {
	if fail := cl.validateRequest(msg); fail != 0 {
		cl.sendErrorResponse(pkt, msg, fail, errorReasons[fail])
		return
	}

	if !cl.codec.VerifyIntegrityShortTerm(pkt.Data, []byte(cl.localPwd)) {
		cl.sendErrorResponse(pkt, msg, 431, "integrity check failed")
		return
	}

	ufrag := strings.SplitN(msg.Username, ":", 2)[0]
	if ufrag != cl.localUfrag {
		cl.sendErrorResponse(pkt, msg, 431, "username mismatch")
		return
	}

	if conflict := cl.handleRoleConflict(pkt, msg); conflict {
		return
	}

	remote := cl.findRemoteCandidate(pkt.SourceAddr)
	if remote == nil {
		var signaledPriority uint32
		if msg.HasPriority {
			signaledPriority = msg.Priority
		}
		pflx, err := NewCandidatePeerReflexive(CandidatePeerReflexiveConfig{
			IP:        pkt.SourceAddr.IP,
			Port:      pkt.SourceAddr.Port,
			Component: pkt.Component,
			Priority:  signaledPriority,
		})
		if err != nil {
			cl.log.Warnf("failed to learn peer-reflexive remote: %v", err)
			return
		}
		if err := cl.addRemoteCandidate(pflx); err != nil {
			cl.log.Warnf("failed to add learned remote candidate: %v", err)
			return
		}
		remote = pflx
	}

	local := cl.findLocalCandidate(pkt.Component, pkt.LocalAddr)
	if local == nil {
		cl.log.Warnf("no local candidate for receive address %s", pkt.LocalAddr)
		return
	}

	p := cl.findPair(local, remote)
	if p == nil {
		p = newCandidatePair(local, remote, cl.role)
		cl.pairs = append(cl.pairs, p)
		cl.checkList = append(cl.checkList, p)
		p.setState(PairStateWaiting)
		cl.enqueueTriggered(p)
	} else {
		switch p.State {
		case PairStateWaiting, PairStateFrozen, PairStateFailed:
			p.setState(PairStateWaiting)
			cl.enqueueTriggered(p)
		case PairStateInProgress:
			p.WaitTransactionTimeout = true
			if msg.HasUseCandidate {
				p.sawUseCandidateWhileInProgress = true
			}
		case PairStateSucceeded:
			// no state change
		}
	}

	if msg.HasUseCandidate && cl.role == Controlled && p.State == PairStateSucceeded {
		p.IsNominated = true
	}

	cl.sendBindingSuccessResponse(pkt, msg)
	cl.conclude(pkt.NowMs)
}

// validateRequest implements §4.4's validation order 1-5 (everything
// that can be checked before MESSAGE-INTEGRITY verification, which needs
// the raw bytes and is handled by the caller). It returns a STUN error
// code, or 0 if msg passes.
func (cl *CheckList) validateRequest(msg *StunMessage) int {
	if !msg.HasMessageIntegrity {
		return 400
	}
	if !msg.HasUsername {
		return 400
	}
	if !msg.HasFingerprint {
		return 400
	}
	if !msg.HasPriority {
		return 400
	}
	if !msg.HasControl {
		return 400
	}
	return 0
}

var errorReasons = map[int]string{
	400: "bad request",
	431: "integrity check failed",
}

// handleRoleConflict implements §4.4's role-conflict handling. It
// returns true if the request was rejected with a 487 and no further
// processing should occur.
func (cl *CheckList) handleRoleConflict(pkt InboundPacket, msg *StunMessage) bool {
	peerTb := msg.Control.TieBreaker

	switch {
	case cl.role == Controlling && msg.Control.Role == Controlling:
		if cl.tieBreaker >= peerTb {
			cl.sendErrorResponse(pkt, msg, 487, "role conflict")
			return true
		}
		cl.flipRole(Controlled)
	case cl.role == Controlled && msg.Control.Role == Controlled:
		if cl.tieBreaker >= peerTb {
			cl.flipRole(Controlling)
		} else {
			cl.sendErrorResponse(pkt, msg, 487, "role conflict")
			return true
		}
	}
	return false
}

// flipRole changes role and recomputes every pair's priority before the
// scheduler's next tick (§9's atomicity note). If the owning Session
// registered onRoleFlip, the flip also propagates to every other stream
// sharing the same role and tie-breaker.
func (cl *CheckList) flipRole(newRole Role) {
	if cl.onRoleFlip != nil {
		cl.onRoleFlip(newRole)
		return
	}
	cl.recomputeAllPriorities(newRole)
}
