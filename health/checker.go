package health

import (
	"context"
	"fmt"
	"time"
)

// Status is the verdict of one check. Higher values are worse.
type Status int

const (
	StatusHealthy Status = iota
	// StatusDegraded means the command still works, with reduced results
	// (e.g. cache discarded, only cached answers available).
	StatusDegraded
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result is the outcome of one check.
type Result struct {
	Name     string
	Status   Status
	Message  string
	Duration time.Duration
	Error    error
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message}
}

// Degraded creates a degraded result carrying the reason, which may be nil.
func Degraded(message string, err error) Result {
	return Result{Status: StatusDegraded, Message: message, Error: err}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err}
}

// Line renders r as one aligned report row. The error is appended only for
// unhealthy results; degraded messages already say what happened.
func (r Result) Line() string {
	msg := r.Message
	if r.Status == StatusUnhealthy && r.Error != nil {
		msg += ": " + r.Error.Error()
	}
	return fmt.Sprintf("%-8s %-9s %s", r.Name, r.Status, msg)
}

// Checker is a single diagnostic.
//
// Contract:
// - Concurrency: Check may run concurrently with other checkers.
// - Context: Check should return promptly once ctx is done.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

type namedCheck struct {
	name string
	fn   func(context.Context) Result
}

// CheckFunc turns fn into a Checker called name.
func CheckFunc(name string, fn func(context.Context) Result) Checker {
	return namedCheck{name: name, fn: fn}
}

func (c namedCheck) Name() string                     { return c.name }
func (c namedCheck) Check(ctx context.Context) Result { return c.fn(ctx) }
