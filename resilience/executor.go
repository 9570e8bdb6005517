package resilience

import (
	"context"
	"time"
)

// Policy runs an operation under some guard.
type Policy interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// Executor runs an operation under an optional retry policy wrapped around
// an optional per-attempt timeout. A nil *Executor runs the operation once.
type Executor struct {
	retry   Policy
	attempt Policy
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an executor. With no options it runs the operation once.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRetry retries failed attempts with r.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithTimeout bounds every attempt by d.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.attempt = NewTimeout(d) }
}

// WithAttemptPolicy wraps every attempt in p, replacing any timeout.
func WithAttemptPolicy(p Policy) ExecutorOption {
	return func(e *Executor) { e.attempt = p }
}

// Execute runs op. Each retry gets a fresh attempt deadline.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	if e == nil {
		return op(ctx)
	}

	attempt := op
	if e.attempt != nil {
		attempt = func(ctx context.Context) error { return e.attempt.Execute(ctx, op) }
	}
	if e.retry == nil {
		return attempt(ctx)
	}
	return e.retry.Execute(ctx, attempt)
}

var (
	_ Policy = (*Retry)(nil)
	_ Policy = (*Timeout)(nil)
)
