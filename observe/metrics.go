package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache and compute instruments.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup counts one cache lookup for meta as a hit or a miss.
	RecordLookup(ctx context.Context, meta OpMeta, hit bool)

	// RecordCompute records one wrapped computation.
	RecordCompute(ctx context.Context, meta OpMeta, duration time.Duration, err error)

	// RecordEviction counts entries dropped to make room.
	RecordEviction(ctx context.Context, n int)

	// RecordPersist counts a store write-back; err marks it failed.
	RecordPersist(ctx context.Context, err error)
}

type metricsImpl struct {
	lookups         metric.Int64Counter
	evictions       metric.Int64Counter
	persists        metric.Int64Counter
	persistFailures metric.Int64Counter
	computeErrors   metric.Int64Counter
	computeDuration metric.Float64Histogram
}

// NewMetrics creates the cache instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &metricsImpl{}
	var err error

	if m.lookups, err = meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Cache lookups by result"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}

	if m.evictions, err = meter.Int64Counter(
		"cache.evictions",
		metric.WithDescription("Entries evicted to stay within capacity"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}

	if m.persists, err = meter.Int64Counter(
		"cache.persists",
		metric.WithDescription("Full store write-backs"),
		metric.WithUnit("{write}"),
	); err != nil {
		return nil, err
	}

	if m.persistFailures, err = meter.Int64Counter(
		"cache.persist.failures",
		metric.WithDescription("Write-backs that failed"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.computeErrors, err = meter.Int64Counter(
		"cache.compute.errors",
		metric.WithDescription("Computations that returned an error"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.computeDuration, err = meter.Float64Histogram(
		"cache.compute.duration_ms",
		metric.WithDescription("Computation duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func opAttrs(meta OpMeta, extra ...attribute.KeyValue) metric.MeasurementOption {
	attrs := append([]attribute.KeyValue{attribute.String("op.id", meta.OpID())}, extra...)
	return metric.WithAttributes(attrs...)
}

func (m *metricsImpl) RecordLookup(ctx context.Context, meta OpMeta, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.Add(ctx, 1, opAttrs(meta, attribute.String("result", result)))
}

func (m *metricsImpl) RecordCompute(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
	opt := opAttrs(meta)
	if err != nil {
		m.computeErrors.Add(ctx, 1, opt)
	}
	m.computeDuration.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordEviction(ctx context.Context, n int) {
	if n <= 0 {
		return
	}
	m.evictions.Add(ctx, int64(n))
}

func (m *metricsImpl) RecordPersist(ctx context.Context, err error) {
	m.persists.Add(ctx, 1)
	if err != nil {
		m.persistFailures.Add(ctx, 1)
	}
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) RecordLookup(context.Context, OpMeta, bool)                   {}
func (noopMetrics) RecordCompute(context.Context, OpMeta, time.Duration, error) {}
func (noopMetrics) RecordEviction(context.Context, int)                          {}
func (noopMetrics) RecordPersist(context.Context, error)                         {}
