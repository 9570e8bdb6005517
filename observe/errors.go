package observe

import (
	"errors"

	"github.com/jonwraymond/memostore/observe/exporters"
)

// Configuration errors.
var (
	ErrMissingServiceName     = errors.New("observe: service name is required")
	ErrInvalidSamplePct       = errors.New("observe: sample percentage must be between 0.0 and 1.0")
	ErrInvalidTracingExporter = errors.New("observe: unknown tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: unknown metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: unknown log level")
)

// ErrMissingOpName indicates OpMeta.Name is empty.
var ErrMissingOpName = errors.New("observe: operation name is required")

// Accepted configuration values. The empty string means the default.
var (
	ValidTracingExporters = exporters.SpanExporterNames()
	ValidMetricsExporters = exporters.MetricsReaderNames()
	ValidLogLevels        = []string{"debug", "info", "warn", "error", ""}
)

// RedactedFields lists field keys whose values never reach the log output.
var RedactedFields = []string{
	"token",
	"github_token",
	"authorization",
	"secret",
	"password",
	"credential",
}
