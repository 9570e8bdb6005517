package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jonwraymond/memostore/cache"
	"github.com/jonwraymond/memostore/github"
)

// StoreChecker reports whether the persisted cache blob can be decoded.
// An unreadable blob is Degraded: the next run starts from an empty store
// and overwrites it.
type StoreChecker struct {
	backend cache.Backend
}

// NewStoreChecker checks the blob held by backend.
func NewStoreChecker(backend cache.Backend) *StoreChecker {
	return &StoreChecker{backend: backend}
}

// Name returns "cache".
func (c *StoreChecker) Name() string { return "cache" }

// Check decodes the blob without loading it.
func (c *StoreChecker) Check(ctx context.Context) Result {
	n, err := cache.Verify(ctx, c.backend)
	switch {
	case err == nil:
		return Healthy(fmt.Sprintf("%d entries in %v", n, c.backend))
	case errors.Is(err, cache.ErrCorruptStore):
		return Degraded(fmt.Sprintf("unreadable store in %v will be discarded", c.backend), err)
	default:
		return Unhealthy("cannot read store", err)
	}
}

// RateLimiter reports the remaining GitHub API quota.
type RateLimiter interface {
	RateLimit(ctx context.Context) (github.Rate, error)
}

// RateLimitChecker reports whether the GitHub API is reachable and how
// much quota is left. An exhausted quota is Degraded because cached
// results are still served.
type RateLimitChecker struct {
	limiter RateLimiter
	now     func() time.Time
}

// NewRateLimitChecker checks the quota reported by limiter.
func NewRateLimitChecker(limiter RateLimiter) *RateLimitChecker {
	return &RateLimitChecker{limiter: limiter, now: time.Now}
}

// Name returns "github".
func (c *RateLimitChecker) Name() string { return "github" }

// Check queries the rate_limit endpoint.
func (c *RateLimitChecker) Check(ctx context.Context) Result {
	rate, err := c.limiter.RateLimit(ctx)
	if err != nil {
		return Unhealthy("GitHub API unreachable", err)
	}
	if rate.Remaining <= 0 {
		return Degraded(fmt.Sprintf("rate limit exhausted, resets %s", humanize.RelTime(rate.Reset, c.now(), "ago", "from now")), ErrQuotaExhausted)
	}
	return Healthy(fmt.Sprintf("%d/%d requests remaining", rate.Remaining, rate.Limit))
}

var (
	_ Checker     = (*StoreChecker)(nil)
	_ Checker     = (*RateLimitChecker)(nil)
	_ RateLimiter = (*github.Client)(nil)
)
