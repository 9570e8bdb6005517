// Package resilience provides retry and timeout wrappers for remote calls.
//
// # Patterns
//
//   - Retry: retries failed operations with exponential, linear or constant
//     backoff. Errors can carry their own delay hint by implementing
//     RetryAfter, which a server's Retry-After header maps onto.
//
//   - Timeout: bounds each attempt with a deadline.
//
// # Usage
//
//	executor := resilience.NewExecutor(
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
//	        MaxAttempts:  3,
//	        InitialDelay: 200 * time.Millisecond,
//	        RetryIf:      isTransient,
//	    })),
//	    resilience.WithTimeout(10*time.Second),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return fetch(ctx)
//	})
//
// The timeout applies to each attempt, not to the whole retry loop.
package resilience
