package ice

import "github.com/pion/stun/v2"

// sendBindingSuccessResponse replies to an inbound request with a
// binding success response carrying XOR-MAPPED-ADDRESS set to the
// sender, per §4.4's closing step.
func (cl *CheckList) sendBindingSuccessResponse(pkt InboundPacket, req *StunMessage) {
	resp := &StunMessage{
		Class:               stun.ClassSuccessResponse,
		Method:              stun.MethodBinding,
		TransactionID:       req.TransactionID,
		HasMessageIntegrity: true,
		HasFingerprint:      true,
		HasXORMappedAddress: true,
		MappedIP:            pkt.SourceAddr.IP,
		MappedPort:          pkt.SourceAddr.Port,
	}
	cl.send(pkt.Component, resp, pkt.SourceAddr)
}

// handleBindingResponse implements §4.5 in full.
func (cl *CheckList) handleBindingResponse(pkt InboundPacket, msg *StunMessage) {
	p := cl.findPairByTransaction(msg.TransactionID)
	if p == nil {
		cl.log.Debugf("unknown transaction id on binding response, ignoring")
		return
	}

	if !pkt.SourceAddr.Equal(p.Remote.TransportAddr()) || !pkt.LocalAddr.Equal(p.Local.TransportAddr()) {
		p.setState(PairStateFailed)
		cl.conclude(pkt.NowMs)
		return
	}

	if !msg.HasUsername || !msg.HasFingerprint || !msg.HasXORMappedAddress {
		// A success response missing any of these is dropped; the pair
		// stays InProgress and its retransmissions continue.
		return
	}

	mapped := TransportAddress{IP: msg.MappedIP, Port: msg.MappedPort}
	local := cl.findLocalCandidate(p.Local.Component(), mapped)
	if local == nil {
		foundation, err := generateFoundation()
		if err != nil {
			cl.log.Warnf("failed to generate peer-reflexive foundation: %v", err)
			return
		}
		pflx, err := NewCandidatePeerReflexive(CandidatePeerReflexiveConfig{
			IP:         mapped.IP,
			Port:       mapped.Port,
			Component:  p.Local.Component(),
			Foundation: foundation,
			Base:       p.Local,
		})
		if err != nil {
			cl.log.Warnf("failed to discover peer-reflexive local: %v", err)
			return
		}
		if err := cl.addLocalCandidate(pflx); err != nil {
			cl.log.Warnf("failed to add discovered local candidate: %v", err)
			return
		}
		local = pflx
	}

	validPair := cl.findAnyPair(local, p.Remote)
	if validPair == nil {
		validPair = newCandidatePair(local, p.Remote, cl.role)
		cl.pairs = append(cl.pairs, validPair)
	}

	nominateAsControlled := p.sawUseCandidateWhileInProgress
	p.sawUseCandidateWhileInProgress = false
	p.setState(PairStateSucceeded)

	for _, other := range cl.checkList {
		if other.State == PairStateFrozen && other.foundation() == p.foundation() {
			other.setState(PairStateWaiting)
		}
	}

	if cl.role == Controlling && p.IsNominated {
		validPair.IsNominated = true
	}
	if cl.role == Controlled && nominateAsControlled {
		validPair.IsNominated = true
	}

	cl.insertValidPair(&ValidPair{Valid: validPair, GeneratedFrom: p})
	cl.conclude(pkt.NowMs)
}

// findPairByTransaction returns the InProgress pair in checkList whose
// stored transaction ID matches, or nil.
func (cl *CheckList) findPairByTransaction(txID [stun.TransactionIDSize]byte) *CandidatePair {
	for _, p := range cl.checkList {
		if p.State == PairStateInProgress && p.TransactionID == txID {
			return p
		}
	}
	return nil
}
