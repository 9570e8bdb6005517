package resilience

import (
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrMaxRetriesExceeded is matched by the error returned when every
	// attempt failed.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrTimeout is returned when an attempt runs past its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// RetryError is returned after the last permitted attempt fails. It matches
// both ErrMaxRetriesExceeded and the last attempt's error.
type RetryError struct {
	Attempts int
	Err      error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("resilience: giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() []error {
	return []error{ErrMaxRetriesExceeded, e.Err}
}
