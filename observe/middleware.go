package observe

import (
	"context"
	"time"
)

// FetchFunc is the signature of a remote call producing raw bytes.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Middleware wraps remote calls with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: Wrap returns a FetchFunc safe for concurrent use.
//   - Context: the span context is passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// MiddlewareFromObserver creates a Middleware sharing obs's components.
func MiddlewareFromObserver(obs *Observer) *Middleware {
	if obs == nil {
		return NewMiddleware(nil, nil, nil)
	}
	return NewMiddleware(obs.Tracer(), obs.Metrics(), obs.Logger())
}

// Wrap instruments fn as the operation described by meta.
func (m *Middleware) Wrap(meta OpMeta, fn FetchFunc) FetchFunc {
	return func(ctx context.Context) ([]byte, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		out, err := fn(ctx)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordCompute(ctx, meta, duration, err)

		logger := m.logger.WithOperation(meta)
		fields := []Field{
			F("duration_ms", float64(duration.Milliseconds())),
			F("bytes", len(out)),
		}
		if err != nil {
			fields = append(fields, F("error", err))
			logger.Error(ctx, "remote call failed", fields...)
		} else {
			logger.Debug(ctx, "remote call completed", fields...)
		}

		return out, err
	}
}
