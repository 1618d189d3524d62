package session

import (
	"errors"
	"fmt"
)

// Kind classifies session errors for the presentation layer.
type Kind string

const (
	// KindRemote is a transport or backend failure. The user may retry.
	KindRemote Kind = "remote"
	// KindValidation is a business-rule rejection such as "no sets logged".
	KindValidation Kind = "validation"
	// KindNotFound means there is nothing to work on (no workout today).
	KindNotFound Kind = "not_found"
	// KindState means the operation is not valid in the current session state.
	KindState Kind = "state"
)

var (
	ErrNotLoaded          = errors.New("no workout loaded")
	ErrNoActivePlan       = errors.New("no active plan")
	ErrNoWorkoutToday     = errors.New("no workout scheduled today")
	ErrNotStarted         = errors.New("workout not started")
	ErrAlreadyStarted     = errors.New("workout already in progress")
	ErrAlreadyComplete    = errors.New("workout already complete")
	ErrNoSetsLogged       = errors.New("log at least one set before completing the exercise")
	ErrExercisesRemaining = errors.New("exercises remaining")
	ErrNoRestTime         = errors.New("no rest time for this exercise")
	ErrNoRestTimer        = errors.New("no rest timer running")
	ErrBusy               = errors.New("another request is in flight")
	ErrSessionReset       = errors.New("session was reset")
	ErrClosed             = errors.New("session closed")
	ErrNoPlanner          = errors.New("backend cannot regenerate plans")
)

// Error is returned by every Controller operation that fails.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same call may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindRemote
}

// KindOf returns the Kind of a session error, or "" for other errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func stateErr(op string, err error) error {
	return &Error{Kind: KindState, Op: op, Err: err}
}
