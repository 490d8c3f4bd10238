package ice

import "errors"

var (
	// ErrAddressParseFailed indicates we were unable to parse a candidate address
	ErrAddressParseFailed = errors.New("failed to parse address")

	// ErrTooManyCandidates indicates a check list already holds the maximum
	// number of local or remote candidates
	ErrTooManyCandidates = errors.New("candidate sequence bound exceeded")

	// ErrTooManyPairs indicates a check list already holds the maximum
	// number of candidate pairs
	ErrTooManyPairs = errors.New("pair sequence bound exceeded")

	// ErrUnknownComponent indicates a component ID outside {1, 2}
	ErrUnknownComponent = errors.New("unknown component id")

	// ErrCheckListClosed indicates an operation was attempted on a
	// check list that has already been destroyed
	ErrCheckListClosed = errors.New("check list is destroyed")

	// ErrMalformedRequest indicates a required STUN attribute was absent
	// from an inbound binding request
	ErrMalformedRequest = errors.New("malformed binding request")

	// ErrNoSocketForComponent indicates the transport returned no socket
	// for the requested component
	ErrNoSocketForComponent = errors.New("no socket for component")

	// ErrSessionClosed indicates an operation was attempted on a
	// destroyed session
	ErrSessionClosed = errors.New("session is destroyed")
)
