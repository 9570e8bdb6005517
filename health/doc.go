// Package health runs diagnostic checks against the memoization store and
// the GitHub API.
//
// A Checker reports a Result whose Status is Healthy, Degraded or
// Unhealthy. An Aggregator runs a set of checkers under one deadline and
// reports their results in registration order:
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewStoreChecker(backend))
//	agg.Register(health.NewRateLimitChecker(client))
//
//	report := agg.CheckAll(ctx)
//	if report.Status == health.StatusUnhealthy {
//	    // at least one check failed
//	}
package health
