// Package exporters builds OpenTelemetry span exporters and metric readers
// by name.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	// ErrUnknownExporter is returned for a name missing from the tables.
	ErrUnknownExporter = errors.New("exporters: unknown exporter")

	// ErrNoEndpoint is returned for otlp when no endpoint variable is set.
	ErrNoEndpoint = errors.New("exporters: OTLP endpoint not configured")
)

type spanFactory func(ctx context.Context, w io.Writer) (sdktrace.SpanExporter, error)

type readerFactory func(ctx context.Context, w io.Writer) (sdkmetric.Reader, error)

var spanExporters = map[string]spanFactory{
	"stdout": func(_ context.Context, w io.Writer) (sdktrace.SpanExporter, error) {
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	},
	"otlp": func(ctx context.Context, _ io.Writer) (sdktrace.SpanExporter, error) {
		if err := requireEndpoint("TRACES"); err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx)
	},
	"none": discardSpans,
	"":     discardSpans,
}

var metricsReaders = map[string]readerFactory{
	"stdout": func(_ context.Context, w io.Writer) (sdkmetric.Reader, error) {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("stdout metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	},
	"otlp": func(ctx context.Context, _ io.Writer) (sdkmetric.Reader, error) {
		if err := requireEndpoint("METRICS"); err != nil {
			return nil, err
		}
		exp, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("OTLP metrics exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	},
	"prometheus": func(context.Context, io.Writer) (sdkmetric.Reader, error) {
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		return exp, nil
	},
	"none": manualReader,
	"":     manualReader,
}

func discardSpans(context.Context, io.Writer) (sdktrace.SpanExporter, error) {
	return stdouttrace.New(stdouttrace.WithWriter(io.Discard))
}

func manualReader(context.Context, io.Writer) (sdkmetric.Reader, error) {
	return sdkmetric.NewManualReader(), nil
}

// requireEndpoint checks the generic and the per-signal OTLP variables.
func requireEndpoint(signal string) error {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" || os.Getenv("OTEL_EXPORTER_OTLP_"+signal+"_ENDPOINT") != "" {
		return nil
	}
	return fmt.Errorf("%w: set OTEL_EXPORTER_OTLP_ENDPOINT or OTEL_EXPORTER_OTLP_%s_ENDPOINT", ErrNoEndpoint, signal)
}

// SpanExporterNames lists the accepted tracing exporter names, sorted.
// The empty name is included and means none.
func SpanExporterNames() []string { return sortedKeys(spanExporters) }

// MetricsReaderNames lists the accepted metrics exporter names, sorted.
func MetricsReaderNames() []string { return sortedKeys(metricsReaders) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// NewSpanExporter creates the span exporter called name. The stdout
// exporter pretty-prints spans to w.
func NewSpanExporter(ctx context.Context, name string, w io.Writer) (sdktrace.SpanExporter, error) {
	f, ok := spanExporters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, name)
	}
	return f(ctx, w)
}

// NewMetricsReader creates the metrics reader called name. The stdout
// reader writes to w when the meter provider flushes.
func NewMetricsReader(ctx context.Context, name string, w io.Writer) (sdkmetric.Reader, error) {
	f, ok := metricsReaders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, name)
	}
	return f(ctx, w)
}
