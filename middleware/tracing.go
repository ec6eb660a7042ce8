package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/evercron/evercron/execution"
)

// tracerName is the instrumentation scope name for evercron tracing.
const tracerName = "github.com/evercron/evercron"

// Tracing returns middleware that wraps handler invocation in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a
// pass-through with zero overhead.
//
// Span attributes include: evercron.execution.id, evercron.job.name,
// evercron.scheduled_at. On error, the span status is set to
// codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided
// tracer. This variant allows injecting a specific TracerProvider for
// testing or when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, e *execution.Execution, next Handler) error {
		ctx, span := tracer.Start(ctx, "evercron.execution.run",
			trace.WithAttributes(
				attribute.String("evercron.execution.id", e.ID.String()),
				attribute.String("evercron.job.name", e.JobName),
				attribute.String("evercron.scheduled_at", e.ScheduledAt.String()),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
