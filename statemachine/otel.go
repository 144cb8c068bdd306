package statemachine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// startFireSpan creates a span for one Fire attempt.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startFireSpan(ctx context.Context, machine string, trigger Trigger) (context.Context, trace.Span) {
	tracer := otel.Tracer("statemachine")
	ctx, span := tracer.Start(ctx, "statemachine.fire")
	span.SetAttributes(
		attribute.String("machine", machine),
		attribute.String("trigger", string(trigger)),
	)

	return ctx, span
}

// startRevertSpan creates a span for one Revert attempt.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startRevertSpan(ctx context.Context, machine string, from, to State) (context.Context, trace.Span) {
	tracer := otel.Tracer("statemachine")
	ctx, span := tracer.Start(ctx, "statemachine.revert")
	span.SetAttributes(
		attribute.String("machine", machine),
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	)

	return ctx, span
}
