package ice

import "github.com/pion/stun/v2"

// sendErrorResponse replies to req with a STUN error response carrying
// the given class/number and reason (§4.4, §7).
func (cl *CheckList) sendErrorResponse(pkt InboundPacket, req *StunMessage, code int, reason string) {
	resp := &StunMessage{
		Class:         stun.ClassErrorResponse,
		Method:        stun.MethodBinding,
		TransactionID: req.TransactionID,
		HasErrorCode:  true,
		ErrorClass:    byte(code / 100),
		ErrorNumber:   byte(code % 100),
		ErrorReason:   reason,
	}
	cl.send(pkt.Component, resp, pkt.SourceAddr)
}

// handleErrorResponse implements §4.7 in full.
func (cl *CheckList) handleErrorResponse(pkt InboundPacket, msg *StunMessage) {
	p := cl.findPairByTransaction(msg.TransactionID)
	if p == nil {
		cl.log.Debugf("unknown transaction id on error response, ignoring")
		return
	}

	recordedRole := p.CheckRole
	p.setState(PairStateFailed)

	if msg.HasErrorCode && msg.ErrorCode() == 487 {
		newRole := Controlled
		if recordedRole == Controlled {
			newRole = Controlling
		}
		cl.flipRole(newRole)
		p.setState(PairStateWaiting)
		cl.enqueueTriggered(p)
	}

	cl.conclude(pkt.NowMs)
}
