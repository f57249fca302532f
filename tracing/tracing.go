// Package tracing provides OpenTelemetry spans for cache operations. It is
// entirely optional: spans are only created when a [Config] is wired in via
// the WithTracing cache option.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Config holds the OpenTelemetry configuration used for cache-operation
// spans.
type Config struct {
	// TracerProvider supplies the Tracer used to create spans. When nil the
	// global otel.GetTracerProvider() is used.
	TracerProvider trace.TracerProvider
}

// tracer returns a configured [trace.Tracer].
func (c *Config) tracer() trace.Tracer {
	tp := c.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer("github.com/Keksclan/goTableCache/tracing")
}

// Start opens a client span for one cache operation against the backing
// table. The returned func ends the span, recording err (nil for success).
// A nil cfg yields a no-op func, so callers never need to branch.
func Start(ctx context.Context, cfg *Config, op, table, key string) (context.Context, func(error)) {
	if cfg == nil {
		return ctx, func(error) {}
	}
	ctx, span := cfg.tracer().Start(ctx, "cache."+op, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("cache.operation", op),
		attribute.String("cache.table", table),
		attribute.String("cache.key", key),
	)
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
