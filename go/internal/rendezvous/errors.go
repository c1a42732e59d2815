package rendezvous

import "errors"

var (
	// ErrInvalidInput is returned when a submission is missing its participant id or value
	ErrInvalidInput = errors.New("invalid data")

	// ErrRoundFull is returned when a new participant joins a round that already has MaxParticipants
	ErrRoundFull = errors.New("round full")

	// ErrClosed is returned after the coordinator has been shut down
	ErrClosed = errors.New("coordinator closed")

	// ErrInvalidTransition guards the Idle -> Collecting -> Decided -> Idle cycle
	ErrInvalidTransition = errors.New("invalid phase transition")
)
