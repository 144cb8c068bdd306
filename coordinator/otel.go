package coordinator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/amp-labs/amp-workflow/router"
	"github.com/amp-labs/amp-workflow/statemachine"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// startPerformSpan creates a span for one Perform call.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startPerformSpan(ctx context.Context, action string, trigger statemachine.Trigger) (context.Context, trace.Span) {
	tracer := otel.Tracer("coordinator")
	ctx, span := tracer.Start(ctx, "coordinator.perform")
	span.SetAttributes(
		attribute.String("action", action),
		attribute.String("action_hash", hashID(action)),
		attribute.String("trigger", string(trigger)),
	)

	return ctx, span
}

// hashID creates a short hash of a caller-supplied name for span attributes.
func hashID(id string) string {
	if id == "" {
		return ""
	}

	h := sha256.Sum256([]byte(id))

	return hex.EncodeToString(h[:4]) // First 8 chars
}

// startUndoSpan creates a span for one UndoLast call.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startUndoSpan(ctx context.Context) (context.Context, trace.Span) {
	tracer := otel.Tracer("coordinator")

	return tracer.Start(ctx, "coordinator.undo")
}

// startNotifySpan creates a span for one Notify call.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startNotifySpan(ctx context.Context, from router.Participant, sig router.Signal) (context.Context, trace.Span) {
	tracer := otel.Tracer("coordinator")
	ctx, span := tracer.Start(ctx, "coordinator.notify")
	span.SetAttributes(
		attribute.String("participant", string(from)),
		attribute.String("signal", string(sig)),
	)

	return ctx, span
}
