package router

import (
	"context"
	"log/slog"
)

// Logger provides logging hooks for router activity.
type Logger interface {
	SignalRouted(ctx context.Context, from Participant, sig Signal, reactions int)
	ReactionFailed(ctx context.Context, from Participant, sig Signal, err error)
	CycleDetected(ctx context.Context, from Participant, sig Signal, depth int)
	ParticipantRegistered(p Participant, bindings int)
	ParticipantDeregistered(p Participant)
}

// DefaultLogger implements Logger using slog.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a logger backed by slog.Default().
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		logger: slog.Default(),
	}
}

// NewSlogLogger creates a logger backed by the given slog logger.
// Tests pass slogt.New(t) here to route router logs through the test runner.
func NewSlogLogger(logger *slog.Logger) *DefaultLogger {
	if logger == nil {
		return NewDefaultLogger()
	}

	return &DefaultLogger{logger: logger}
}

func (l *DefaultLogger) SignalRouted(ctx context.Context, from Participant, sig Signal, reactions int) {
	l.logger.DebugContext(ctx, "Signal routed",
		"participant", string(from),
		"signal", string(sig),
		"reactions", reactions,
	)
}

func (l *DefaultLogger) ReactionFailed(ctx context.Context, from Participant, sig Signal, err error) {
	l.logger.ErrorContext(ctx, "Reaction failed",
		"participant", string(from),
		"signal", string(sig),
		"error", err,
	)
}

func (l *DefaultLogger) CycleDetected(ctx context.Context, from Participant, sig Signal, depth int) {
	l.logger.ErrorContext(ctx, "Routing cycle detected",
		"participant", string(from),
		"signal", string(sig),
		"depth", depth,
	)
}

func (l *DefaultLogger) ParticipantRegistered(p Participant, bindings int) {
	l.logger.Debug("Participant registered",
		"participant", string(p),
		"bindings", bindings,
	)
}

func (l *DefaultLogger) ParticipantDeregistered(p Participant) {
	l.logger.Debug("Participant deregistered",
		"participant", string(p),
	)
}

// NopLogger discards all router log output.
type NopLogger struct{}

func (NopLogger) SignalRouted(context.Context, Participant, Signal, int) {}

func (NopLogger) ReactionFailed(context.Context, Participant, Signal, error) {}

func (NopLogger) CycleDetected(context.Context, Participant, Signal, int) {}

func (NopLogger) ParticipantRegistered(Participant, int) {}

func (NopLogger) ParticipantDeregistered(Participant) {}
