package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// newTestConfig returns a Config backed by an in-memory span recorder.
func newTestConfig(t *testing.T) (*Config, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return &Config{TracerProvider: tp}, rec
}

func attrValue(span sdktrace.ReadOnlySpan, key attribute.Key) string {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value.AsString()
		}
	}
	return ""
}

func TestStart_CreatesSpan(t *testing.T) {
	cfg, rec := newTestConfig(t)

	_, end := Start(context.Background(), cfg, "get", "sessions", "user:42")
	end(nil)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "cache.get" {
		t.Fatalf("span name = %q, want %q", span.Name(), "cache.get")
	}
	if span.SpanKind() != trace.SpanKindClient {
		t.Fatalf("span kind = %v, want client", span.SpanKind())
	}
	if got := attrValue(span, "cache.table"); got != "sessions" {
		t.Fatalf("cache.table = %q", got)
	}
	if got := attrValue(span, "cache.key"); got != "user:42" {
		t.Fatalf("cache.key = %q", got)
	}
	if span.Status().Code != codes.Ok {
		t.Fatalf("status = %v, want Ok", span.Status())
	}
}

func TestStart_RecordsError(t *testing.T) {
	cfg, rec := newTestConfig(t)

	_, end := Start(context.Background(), cfg, "set", "sessions", "k")
	end(errors.New("table throttled"))

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Status().Code != codes.Error {
		t.Fatalf("status = %v, want Error", span.Status())
	}
	if len(span.Events()) == 0 {
		t.Fatal("expected a recorded error event")
	}
}

func TestStart_NilConfigIsNoOp(t *testing.T) {
	ctx, end := Start(context.Background(), nil, "get", "t", "k")
	if ctx == nil {
		t.Fatal("context must pass through")
	}
	end(errors.New("ignored")) // must not panic
}
