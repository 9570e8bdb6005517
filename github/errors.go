package github

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors for GitHub operations.
var (
	ErrInvalidUser       = errors.New("github: user name is empty")
	ErrUserNotFound      = errors.New("github: user does not exist")
	ErrUnexpectedPayload = errors.New("github: API error or the user does not exist")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code       int
	Message    string
	retryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github: unexpected status %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("github: unexpected status %d: %s", e.Code, e.Message)
}

// Unwrap lets a 404 match ErrUserNotFound.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrUserNotFound
	}
	return nil
}

// RetryAfter returns the server's requested wait, if it sent one.
func (e *StatusError) RetryAfter() time.Duration { return e.retryAfter }

// Temporary reports whether retrying the request may succeed.
func (e *StatusError) Temporary() bool {
	switch {
	case e.Code == http.StatusTooManyRequests:
		return true
	case e.Code == http.StatusForbidden && e.retryAfter > 0:
		// Secondary rate limits arrive as 403 with a retry hint.
		return true
	default:
		return e.Code >= 500
	}
}

// parseRetryAfter reads Retry-After (seconds) or, failing that, the
// X-RateLimit-Reset epoch when the quota is exhausted.
func parseRetryAfter(h http.Header, now time.Time) time.Duration {
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(v); err == nil && at.After(now) {
			return at.Sub(now)
		}
	}
	if h.Get("X-RateLimit-Remaining") == "0" {
		if reset, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64); err == nil {
			if at := time.Unix(reset, 0); at.After(now) {
				return at.Sub(now)
			}
		}
	}
	return 0
}
