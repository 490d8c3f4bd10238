// Package ice implements the pair-state machine and connectivity-check
// scheduler of an Interactive Connectivity Establishment (ICE) agent, per
// RFC 5245. Candidate gathering, STUN wire encoding, and socket I/O are
// external collaborators; see Transport and StunCodec.
package ice

import "fmt"

// Role represents the ICE agent role, which can be controlling or controlled.
type Role byte

// Possible ICE agent roles.
const (
	Controlling Role = iota
	Controlled
)

func (r Role) String() string {
	switch r {
	case Controlling:
		return "controlling"
	case Controlled:
		return "controlled"
	default:
		return "unknown"
	}
}

// CandidateType enumerates the four candidate types from RFC 5245 §4.1.1.
type CandidateType byte

// Candidate types in descending type preference.
const (
	CandidateTypeHost CandidateType = iota
	CandidateTypePeerReflexive
	CandidateTypeServerReflexive
	CandidateTypeRelayed
)

// Preference returns the type-preference value used in the priority formula.
func (t CandidateType) Preference() uint32 {
	switch t {
	case CandidateTypeHost:
		return 126
	case CandidateTypePeerReflexive:
		return 110
	case CandidateTypeServerReflexive:
		return 100
	case CandidateTypeRelayed:
		return 0
	default:
		return 0
	}
}

func (t CandidateType) String() string {
	switch t {
	case CandidateTypeHost:
		return "host"
	case CandidateTypePeerReflexive:
		return "prflx"
	case CandidateTypeServerReflexive:
		return "srflx"
	case CandidateTypeRelayed:
		return "relay"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// PairState is the RFC 5245 §5.7.4 candidate pair state.
type PairState byte

// Candidate pair states.
const (
	PairStateFrozen PairState = iota
	PairStateWaiting
	PairStateInProgress
	PairStateSucceeded
	PairStateFailed
)

func (s PairState) String() string {
	switch s {
	case PairStateFrozen:
		return "Frozen"
	case PairStateWaiting:
		return "Waiting"
	case PairStateInProgress:
		return "In-Progress"
	case PairStateSucceeded:
		return "Succeeded"
	case PairStateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// CheckListState is the overall state of one media stream's check list.
type CheckListState byte

// Check list states.
const (
	CheckListRunning CheckListState = iota
	CheckListCompleted
	CheckListFailed
)

func (s CheckListState) String() string {
	switch s {
	case CheckListRunning:
		return "Running"
	case CheckListCompleted:
		return "Completed"
	case CheckListFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ICEMaxRetransmissions is the retry ceiling from spec.md §4.3 / §5: the
// 8th retransmission (retransmissions > 7) fails the pair instead of being
// sent.
const ICEMaxRetransmissions = 7

// Component IDs. RTP is always 1, RTCP (when present) is always 2.
const (
	ComponentRTP  uint16 = 1
	ComponentRTCP uint16 = 2
)

const (
	defaultLocalPreference = 65535

	maxCandidatesPerList = 10
	maxPairsPerList      = maxCandidatesPerList * maxCandidatesPerList

	defaultTaMs              = 20
	minKeepaliveTimeoutS     = 15
	defaultMaxConnectivityChecks = 100

	defaultRtoMs = 100
)
