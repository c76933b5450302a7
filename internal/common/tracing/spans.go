package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	chatTracerName = "dbchat-chat"
	dbTracerName   = "dbchat-db"
)

// TraceStep creates a span for one workflow step handled for a user.
func TraceStep(ctx context.Context, userID, workflow, step string) (context.Context, trace.Span) {
	ctx, span := Tracer(chatTracerName).Start(ctx, "chat.step",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("workflow", workflow),
		attribute.String("step", step),
	)
	return ctx, span
}

// TraceQuery creates a span for a database gateway call.
func TraceQuery(ctx context.Context, driver, operation, statement string) (context.Context, trace.Span) {
	ctx, span := Tracer(dbTracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("db.system", driver),
		attribute.String("db.operation", operation),
		attribute.String("db.statement", statement),
	)
	return ctx, span
}

// RecordResult records an outcome label and optional error on a span.
func RecordResult(span trace.Span, outcome string, err error) {
	if outcome != "" {
		span.SetAttributes(attribute.String("outcome", outcome))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
