package testsession

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is wrapped by errors for malformed requests.
var ErrInvalidInput = errors.New("invalid input")

// ErrSessionNotFound means no session with the id belongs to the learner.
type ErrSessionNotFound struct {
	ID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("test session %q not found", e.ID)
}

// ErrSessionClosed means the session is already completed.
type ErrSessionClosed struct {
	ID string
}

func (e *ErrSessionClosed) Error() string {
	return fmt.Sprintf("test session %q is already completed", e.ID)
}

// ErrSessionActive means a completed session was required.
type ErrSessionActive struct {
	ID string
}

func (e *ErrSessionActive) Error() string {
	return fmt.Sprintf("test session %q is still active", e.ID)
}

// ErrInvalidIndex means a question index outside [0, Total).
type ErrInvalidIndex struct {
	Index int
	Total int
}

func (e *ErrInvalidIndex) Error() string {
	return fmt.Sprintf("question index %d out of range [0, %d)", e.Index, e.Total)
}

// ErrStoreUnavailable wraps a persistence failure. It is fatal to the
// operation and never retried.
type ErrStoreUnavailable struct {
	Op  string
	Err error
}

func (e *ErrStoreUnavailable) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *ErrStoreUnavailable) Unwrap() error { return e.Err }
