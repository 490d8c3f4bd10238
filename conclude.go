package ice

// conclude implements §4.6. It is invoked after every inbound request,
// response, and error response that matches a pair and passes validation,
// and by Process once there is nothing left to send.
func (cl *CheckList) conclude(nowMs uint64) {
	if cl.role == Controlling {
		cl.performRegularNomination()
	}
	cl.cancelRedundantChecks()

	if cl.testCompletion(nowMs) {
		return
	}
	cl.testFailure()
}

// performRegularNomination implements §4.6 step 1: per component, among
// the valid pairs not yet nominated, only the highest-priority one has its
// generating pair nominated and enqueued as a triggered check. Valid pairs
// that are already nominated are skipped and do not stop a component's
// remaining valid pairs from being considered.
func (cl *CheckList) performRegularNomination() {
	best := make(map[uint16]*ValidPair)
	for _, v := range cl.validList {
		component := v.Valid.Local.Component()
		if v.Valid.IsNominated {
			continue
		}
		if cur, ok := best[component]; !ok || v.Valid.Priority > cur.Valid.Priority {
			best[component] = v
		}
	}
	for _, v := range best {
		v.GeneratedFrom.IsNominated = true
		cl.enqueueTriggered(v.GeneratedFrom)
	}
}

// cancelRedundantChecks implements §4.6 step 2: for each nominated valid
// pair, drop Waiting/Frozen pairs of that component from checkList and
// the triggered queue, and stop any InProgress pair of that component
// from retransmitting further.
func (cl *CheckList) cancelRedundantChecks() {
	nominatedComponents := make(map[uint16]bool)
	for _, v := range cl.validList {
		if v.Valid.IsNominated {
			nominatedComponents[v.Valid.Local.Component()] = true
		}
	}
	if len(nominatedComponents) == 0 {
		return
	}

	remaining := cl.checkList[:0]
	for _, p := range cl.checkList {
		component := p.Local.Component()
		if !nominatedComponents[component] {
			remaining = append(remaining, p)
			continue
		}
		switch p.State {
		case PairStateWaiting, PairStateFrozen:
			cl.removeFromTriggered(p)
			continue
		case PairStateInProgress:
			p.Retransmissions = ICEMaxRetransmissions + 1
		}
		remaining = append(remaining, p)
	}
	cl.checkList = remaining
}

// testCompletion implements §4.6 step 3.
func (cl *CheckList) testCompletion(nowMs uint64) bool {
	for component := range cl.componentIDs {
		if !cl.hasNominatedValidPair(component) {
			return false
		}
	}
	if cl.state == CheckListCompleted {
		return true
	}
	cl.state = CheckListCompleted
	cl.keepaliveTimeMs = nowMs
	if cl.successCb != nil && !cl.fired {
		cl.fired = true
		cl.successCb(cl.successCbCtx)
	}
	return true
}

func (cl *CheckList) hasNominatedValidPair(component uint16) bool {
	for _, v := range cl.validList {
		if v.Valid.IsNominated && v.Valid.Local.Component() == component {
			return true
		}
	}
	return false
}

// testFailure implements §4.6 step 4. A check still waiting in the
// triggered queue (such as a nominating re-check) keeps the list Running.
func (cl *CheckList) testFailure() {
	if len(cl.checkList) == 0 || len(cl.triggeredQueue) > 0 {
		return
	}
	for _, p := range cl.checkList {
		if p.State != PairStateFailed && p.State != PairStateSucceeded {
			return
		}
	}
	cl.state = CheckListFailed
}
