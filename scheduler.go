package ice

// Process drives one tick of the scheduler (spec.md §4.2). It must be
// called periodically by a single ticker per session; see §5 for the
// concurrency model this assumes.
func (cl *CheckList) Process(nowMs uint64) {
	if cl.closed {
		return
	}
	switch cl.state {
	case CheckListFailed:
		return
	case CheckListRunning, CheckListCompleted:
		cl.processRetransmissions(nowMs)
		if cl.state == CheckListCompleted {
			cl.processKeepalives(nowMs)
		}
	}

	if cl.state != CheckListRunning {
		return
	}

	if nowMs-cl.taTimeMs < uint64(cl.taMs) {
		return
	}
	cl.taTimeMs = nowMs

	if p := cl.popTriggered(); p != nil {
		cl.sendBindingRequest(p, nowMs)
		return
	}

	if p := firstPairInState(cl.checkList, PairStateWaiting); p != nil {
		cl.sendBindingRequest(p, nowMs)
		return
	}

	if p := firstPairInState(cl.checkList, PairStateFrozen); p != nil {
		cl.sendBindingRequest(p, nowMs)
		return
	}

	if !anyPairRetrying(cl.checkList) {
		cl.conclude(nowMs)
	}
}

// processRetransmissions reissues the binding request for every
// InProgress pair whose RTO has elapsed (§4.2, §4.3).
func (cl *CheckList) processRetransmissions(nowMs uint64) {
	for _, p := range cl.checkList {
		if p.State != PairStateInProgress {
			continue
		}
		if nowMs-p.TransmissionTimeMs >= uint64(p.RtoMs) {
			cl.sendBindingRequest(p, nowMs)
		}
	}
}

// processKeepalives sends indications for every nominated valid pair,
// once per component, every keepalive_timeout_s seconds (§4.8).
func (cl *CheckList) processKeepalives(nowMs uint64) {
	keepaliveMs := uint64(cl.keepaliveTimeoutS) * 1000
	if nowMs-cl.keepaliveTimeMs < keepaliveMs {
		return
	}
	cl.keepaliveTimeMs = nowMs

	sent := make(map[uint16]bool)
	for _, v := range cl.validList {
		if !v.Valid.IsNominated {
			continue
		}
		component := v.Valid.Local.Component()
		if sent[component] {
			continue
		}
		sent[component] = true
		cl.sendKeepalive(v.Valid)
	}
}

// firstPairInState returns the first pair in list whose state is s, or
// nil.
func firstPairInState(list []*CandidatePair, s PairState) *CandidatePair {
	for _, p := range list {
		if p.State == s {
			return p
		}
	}
	return nil
}

// anyPairRetrying reports whether any InProgress pair still has
// retransmissions remaining — the scheduler must not conclude while one
// does (§4.2 step 4).
func anyPairRetrying(list []*CandidatePair) bool {
	for _, p := range list {
		if p.State == PairStateInProgress && p.Retransmissions <= ICEMaxRetransmissions {
			return true
		}
	}
	return false
}
