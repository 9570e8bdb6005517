package observe

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
)

func TestMiddleware_SuccessPath(t *testing.T) {
	tracer, rec := newRecordingTracer()
	metrics, reader := newTestMetrics(t)
	mw := NewMiddleware(tracer, metrics, nil)

	meta := OpMeta{Namespace: "github", Name: "fetch"}
	calls := 0
	wrapped := mw.Wrap(meta, func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte(`[]`), nil
	})

	out, err := wrapped(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if string(out) != `[]` {
		t.Errorf("unexpected result: %s", out)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	spans := rec.Ended()
	if len(spans) != 1 || spans[0].Name() != "memo.github.fetch" {
		t.Fatalf("unexpected spans: %v", spans)
	}

	rm := collect(t, reader)
	if findMetric(rm, "cache.compute.duration_ms") == nil {
		t.Error("cache.compute.duration_ms not recorded")
	}
}

func TestMiddleware_ErrorPathPropagatesUnchanged(t *testing.T) {
	tracer, rec := newRecordingTracer()
	var logs bytes.Buffer
	mw := NewMiddleware(tracer, nil, NewLoggerWithWriter("info", &logs))

	sentinel := errors.New("upstream 502")
	wrapped := mw.Wrap(OpMeta{Name: "fetch"}, func(ctx context.Context) ([]byte, error) {
		return nil, sentinel
	})

	_, err := wrapped(context.Background())
	if err != sentinel {
		t.Fatalf("error = %v, want identical sentinel", err)
	}
	if rec.Ended()[0].Status().Code != codes.Error {
		t.Error("expected error span status")
	}
	if !strings.Contains(logs.String(), "remote call failed") {
		t.Errorf("expected failure log line, got: %s", logs.String())
	}
}

func TestMiddlewareFromObserver_Nil(t *testing.T) {
	mw := MiddlewareFromObserver(nil)
	out, err := mw.Wrap(OpMeta{Name: "x"}, func(context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})(context.Background())
	if err != nil || string(out) != "ok" {
		t.Fatalf("got (%q, %v)", out, err)
	}
}
