package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/memostore/observe"
)

// ComputeFunc produces the value for a cache miss.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// PersistErrorHandler is called when a computed value was stored but the
// store could not be written back.
type PersistErrorHandler func(ctx context.Context, err *PersistError)

// Invoker memoizes computations in a Store.
//
// Contract:
// - Hits: a cached value is returned without calling compute.
// - Misses: a successful result is inserted and the whole store persisted.
// - Errors: compute errors are returned unchanged and nothing is stored.
// A failed persist does not fail the call; it is logged, counted and passed
// to the OnPersistError handler.
// - Context: ctx is passed to compute as is; no timeout or retry is added.
type Invoker struct {
	store          *Store
	keyer          Keyer
	logger         observe.Logger
	metrics        observe.Metrics
	tracer         observe.Tracer
	onPersistError PersistErrorHandler
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithKeyer overrides the key derivation. The default is DefaultKeyer.
func WithKeyer(k Keyer) InvokerOption {
	return func(inv *Invoker) {
		if k != nil {
			inv.keyer = k
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) InvokerOption {
	return func(inv *Invoker) {
		if l != nil {
			inv.logger = l
		}
	}
}

// WithMetrics sets the lookup and compute instruments.
func WithMetrics(m observe.Metrics) InvokerOption {
	return func(inv *Invoker) {
		if m != nil {
			inv.metrics = m
		}
	}
}

// WithTracer sets the tracer. Each GetOrCompute call gets one span.
func WithTracer(t observe.Tracer) InvokerOption {
	return func(inv *Invoker) {
		if t != nil {
			inv.tracer = t
		}
	}
}

// WithOnPersistError registers a handler for failed write-backs.
func WithOnPersistError(h PersistErrorHandler) InvokerOption {
	return func(inv *Invoker) { inv.onPersistError = h }
}

// NewInvoker creates an Invoker over store.
func NewInvoker(store *Store, opts ...InvokerOption) (*Invoker, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	inv := &Invoker{
		store:   store,
		keyer:   NewDefaultKeyer(),
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
		tracer:  observe.NopTracer(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv, nil
}

// Store returns the underlying store.
func (inv *Invoker) Store() *Store { return inv.store }

// GetOrCompute returns the value memoized for op called with args and
// kwargs, running compute on a miss.
func (inv *Invoker) GetOrCompute(
	ctx context.Context,
	op string,
	args []any,
	kwargs map[string]any,
	compute ComputeFunc,
) (value []byte, err error) {
	if compute == nil {
		return nil, ErrNilCompute
	}

	meta := observe.OpMeta{Name: op}
	ctx, span := inv.tracer.StartSpan(ctx, meta)
	defer func() { inv.tracer.EndSpan(span, err) }()
	logger := inv.logger.WithOperation(meta)

	key, err := inv.keyer.Derive(op, args, kwargs)
	if err != nil {
		return nil, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, fmt.Errorf("cache: keyer returned bad key: %w", err)
	}

	if cached, ok := inv.store.Get(ctx, key); ok {
		inv.metrics.RecordLookup(ctx, meta, true)
		observe.MarkCacheHit(span, true)
		logger.Debug(ctx, "cache hit", observe.F("key", key.Short()))
		return cached, nil
	}
	inv.metrics.RecordLookup(ctx, meta, false)
	observe.MarkCacheHit(span, false)

	start := time.Now()
	value, err = compute(ctx)
	inv.metrics.RecordCompute(ctx, meta, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if err := inv.store.Insert(ctx, key, value); err != nil {
		return nil, err
	}

	if perr := inv.store.Persist(ctx); perr != nil {
		inv.reportPersist(ctx, logger, span, perr)
	}

	logger.Debug(ctx, "cache miss computed",
		observe.F("key", key.Short()),
		observe.F("bytes", len(value)),
	)
	return value, nil
}

func (inv *Invoker) reportPersist(ctx context.Context, logger observe.Logger, span trace.Span, err error) {
	observe.MarkPersistFailed(span, err)
	logger.Warn(ctx, "cache persist failed; returning computed value", observe.F("error", err))

	var perr *PersistError
	if inv.onPersistError != nil && errors.As(err, &perr) {
		inv.onPersistError(ctx, perr)
	}
}
