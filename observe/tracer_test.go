package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	return NewTracer(tp.Tracer("test")), rec
}

func attrValue(attrs []attribute.KeyValue, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range attrs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestOpMeta_Names(t *testing.T) {
	tests := []struct {
		name     string
		meta     OpMeta
		wantID   string
		wantSpan string
	}{
		{"with namespace", OpMeta{Namespace: "github", Name: "events"}, "github.events", "memo.github.events"},
		{"without namespace", OpMeta{Name: "events"}, "events", "memo.events"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.OpID(); got != tt.wantID {
				t.Errorf("OpID() = %q, want %q", got, tt.wantID)
			}
			if got := tt.meta.SpanName(); got != tt.wantSpan {
				t.Errorf("SpanName() = %q, want %q", got, tt.wantSpan)
			}
		})
	}
}

func TestOpMeta_Validate(t *testing.T) {
	if err := (OpMeta{}).Validate(); !errors.Is(err, ErrMissingOpName) {
		t.Errorf("Validate() = %v, want ErrMissingOpName", err)
	}
	if err := (OpMeta{Name: "events"}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestTracer_SpanAttributes(t *testing.T) {
	tracer, rec := newRecordingTracer()

	_, span := tracer.StartSpan(context.Background(), OpMeta{
		Namespace: "github",
		Name:      "events",
		Tags:      []string{"remote"},
	})
	MarkCacheHit(span, true)
	tracer.EndSpan(span, nil)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "memo.github.events" {
		t.Errorf("span name = %q", s.Name())
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", s.Status().Code)
	}
	if v, ok := attrValue(s.Attributes(), "op.id"); !ok || v.AsString() != "github.events" {
		t.Errorf("op.id = %v", v)
	}
	if v, ok := attrValue(s.Attributes(), "cache.hit"); !ok || !v.AsBool() {
		t.Errorf("cache.hit = %v", v)
	}
	if v, ok := attrValue(s.Attributes(), "op.tags"); !ok || len(v.AsStringSlice()) != 1 {
		t.Errorf("op.tags = %v", v)
	}
}

func TestTracer_EndSpanRecordsError(t *testing.T) {
	tracer, rec := newRecordingTracer()

	_, span := tracer.StartSpan(context.Background(), OpMeta{Name: "events"})
	tracer.EndSpan(span, errors.New("connection refused"))

	s := rec.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", s.Status().Code)
	}
	if s.Status().Description != "connection refused" {
		t.Errorf("description = %q", s.Status().Description)
	}
	if len(s.Events()) == 0 {
		t.Error("expected recorded error event")
	}
}

func TestMarkPersistFailed(t *testing.T) {
	tracer, rec := newRecordingTracer()

	_, span := tracer.StartSpan(context.Background(), OpMeta{Name: "events"})
	MarkPersistFailed(span, errors.New("read-only file system"))
	tracer.EndSpan(span, nil)

	s := rec.Ended()[0]
	if v, ok := attrValue(s.Attributes(), "cache.persist_failed"); !ok || !v.AsBool() {
		t.Errorf("cache.persist_failed = %v", v)
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("persist failure must not fail the span, status = %v", s.Status().Code)
	}
}

func TestNopTracer_NoPanic(t *testing.T) {
	tracer := NopTracer()
	_, span := tracer.StartSpan(context.Background(), OpMeta{Name: "noop"})
	tracer.EndSpan(span, nil)
}
