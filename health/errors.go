package health

import "errors"

var (
	// ErrUnhealthy is returned by callers when a report has an unhealthy result.
	ErrUnhealthy = errors.New("health: at least one check is unhealthy")

	// ErrQuotaExhausted marks a GitHub quota with no requests left.
	ErrQuotaExhausted = errors.New("health: github rate limit exhausted")

	// ErrCheckTimeout marks a check that did not finish before the deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for an unknown name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
