package logger

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestInit(t *testing.T) {
	l := Init("test-service", slog.LevelInfo)
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if !l.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info level must be enabled")
	}
	if l.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug must be disabled at info level")
	}
}

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "PSO-12345")
	if got := TraceID(ctx); got != "PSO-12345" {
		t.Errorf("expected PSO-12345, got %q", got)
	}
}

func TestTraceID_EmptyWhenUnset(t *testing.T) {
	if got := TraceID(context.Background()); got != "" {
		t.Errorf("expected empty trace ID, got %q", got)
	}
}

func TestGenerateTraceID(t *testing.T) {
	ts := time.Unix(360000, 0)
	got := GenerateTraceID("PSO", ts)
	want := "PSO-360000000000000"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestLogWithTrace(t *testing.T) {
	if attrs := LogWithTrace(context.Background()); attrs != nil {
		t.Errorf("expected nil attrs without trace ID, got %v", attrs)
	}

	ctx := WithTraceID(context.Background(), "OGDC-99")
	attrs := LogWithTrace(ctx)
	if len(attrs) != 1 {
		t.Fatalf("expected 1 attr, got %d", len(attrs))
	}
	attr, ok := attrs[0].(slog.Attr)
	if !ok {
		t.Fatalf("expected slog.Attr, got %T", attrs[0])
	}
	if attr.Key != "trace_id" || attr.Value.String() != "OGDC-99" {
		t.Errorf("unexpected attr: %v", attr)
	}
}
