// Package observe provides telemetry for memoized operations.
//
// It wires OpenTelemetry tracing and metrics plus a zerolog-backed
// structured logger. The cache and github packages accept these primitives
// through options; a nil value anywhere means no-op.
package observe
