package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultAttemptTimeout bounds an attempt when no duration is given.
const DefaultAttemptTimeout = 30 * time.Second

// Timeout gives each attempt its own deadline. It starts no goroutine, so
// the operation must honor ctx.
type Timeout struct {
	d time.Duration
}

// NewTimeout bounds attempts by d. Non-positive d means DefaultAttemptTimeout.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = DefaultAttemptTimeout
	}
	return &Timeout{d: d}
}

// Duration returns the per-attempt bound.
func (t *Timeout) Duration() time.Duration { return t.d }

// Execute runs op under a derived deadline. When op fails after that
// deadline expired the result is ErrTimeout joined with op's error; expiry
// of the caller's ctx is returned unchanged.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	err := op(attemptCtx)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return err
	case errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
		return errors.Join(ErrTimeout, err)
	default:
		return err
	}
}
