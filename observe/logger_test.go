package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, buf.String())
	}
	return entry
}

func TestLogger_IncludesOperationFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.WithOperation(OpMeta{Namespace: "github", Name: "events"}).
		Info(context.Background(), "fetched")

	entry := decodeLine(t, &buf)
	if v := entry["op.id"]; v != "github.events" {
		t.Errorf("expected op.id='github.events', got %v", v)
	}
	if v := entry["op.namespace"]; v != "github" {
		t.Errorf("expected op.namespace='github', got %v", v)
	}
	if v := entry["op.name"]; v != "events" {
		t.Errorf("expected op.name='events', got %v", v)
	}
	if v := entry["level"]; v != "info" {
		t.Errorf("expected level='info', got %v", v)
	}
	if v := entry["message"]; v != "fetched" {
		t.Errorf("expected message='fetched', got %v", v)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected time field")
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Debug(context.Background(), "debug message")
	logger.Info(context.Background(), "info message")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got: %s", buf.String())
	}

	logger.Warn(context.Background(), "warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Errorf("expected warn message, got: %s", buf.String())
	}
}

func TestLogger_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Error(context.Background(), "persist failed", F("error", errors.New("disk full")))

	entry := decodeLine(t, &buf)
	if v := entry["error"]; v != "disk full" {
		t.Errorf("expected error='disk full', got %v", v)
	}
	if v := entry["level"]; v != "error" {
		t.Errorf("expected level='error', got %v", v)
	}
}

func TestLogger_RedactsSensitiveFields(t *testing.T) {
	for _, key := range RedactedFields {
		t.Run(key, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter("info", &buf)

			logger.Info(context.Background(), "configured", F(key, "ghp_supersecret"))

			if strings.Contains(buf.String(), "ghp_supersecret") {
				t.Fatalf("%s value leaked: %s", key, buf.String())
			}
			entry := decodeLine(t, &buf)
			if entry[key] != "[REDACTED]" {
				t.Errorf("expected %s='[REDACTED]', got %v", key, entry[key])
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopLogger_NoPanic(t *testing.T) {
	logger := NopLogger()
	ctx := context.Background()
	logger.Info(ctx, "x")
	logger.Warn(ctx, "x")
	logger.Error(ctx, "x", F("error", errors.New("boom")))
	logger.Debug(ctx, "x")
	if logger.WithOperation(OpMeta{Name: "noop"}) == nil {
		t.Fatal("WithOperation should return non-nil logger")
	}
}
