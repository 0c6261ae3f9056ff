package session

import (
	"errors"
	"fmt"
)

type State string

const (
	StateIdle            State = "IDLE"
	StateSubmitting      State = "SUBMITTING"
	StateAwaitingResults State = "AWAITING_RESULTS"
	StateResultsReady    State = "RESULTS_READY"
	StateNoResults       State = "NO_RESULTS"
	StateFailed          State = "FAILED"
	StateConnected       State = "CONNECTED"
	StateConfirmed       State = "CONFIRMED"
)

// AllowedTransitions lists forward moves. Leave may return any state to IDLE.
var AllowedTransitions = map[State][]State{
	StateIdle:            {StateSubmitting},
	StateNoResults:       {StateSubmitting},
	StateFailed:          {StateSubmitting},
	StateSubmitting:      {StateAwaitingResults},
	StateAwaitingResults: {StateResultsReady, StateNoResults, StateFailed},
	StateResultsReady:    {StateConnected},
	StateConnected:       {StateConfirmed},
}

func CanTransition(from, to State) bool {
	if to == StateIdle {
		return true
	}
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var (
	ErrValidation       = errors.New("session: invalid request")
	ErrMatchService     = errors.New("session: match service failed")
	ErrInvalidState     = errors.New("session: operation not allowed in current state")
	ErrUnknownCandidate = errors.New("session: candidate not in results")
	ErrEmptyMessage     = errors.New("session: message is empty")
	ErrSessionReset     = errors.New("session: left while request was in flight")
)

// ValidationError names the rejected field of a submission.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// MatchServiceError wraps a failed or timed out discovery call. The session
// moves to FAILED and the request may be retried.
type MatchServiceError struct {
	Err error
}

func (e *MatchServiceError) Error() string {
	return fmt.Sprintf("match service: %v", e.Err)
}

func (e *MatchServiceError) Unwrap() error { return e.Err }

func (e *MatchServiceError) Is(target error) bool { return target == ErrMatchService }

func stateError(op string, s State) error {
	return fmt.Errorf("%s in %s: %w", op, s, ErrInvalidState)
}
