package statemachine

import (
	"context"
	"log/slog"
)

// Logger provides logging hooks for machine activity.
type Logger interface {
	TransitionExecuted(ctx context.Context, from, to State, trigger Trigger)
	TransitionRejected(ctx context.Context, from State, trigger Trigger, err error)
	EffectFailed(ctx context.Context, from, to State, trigger Trigger, err error)
	TransitionReverted(ctx context.Context, from, to State)
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
// Tests pass slogt.New(t) here to route machine logs through the test runner.
func NewSlogLogger(logger *slog.Logger) *DefaultLogger {
	if logger == nil {
		return NewDefaultLogger()
	}

	return &DefaultLogger{logger: logger}
}

func (l *DefaultLogger) TransitionExecuted(ctx context.Context, from, to State, trigger Trigger) {
	l.logger.InfoContext(ctx, "Transition executed",
		"from", string(from),
		"to", string(to),
		"trigger", string(trigger),
	)
}

func (l *DefaultLogger) TransitionRejected(ctx context.Context, from State, trigger Trigger, err error) {
	l.logger.DebugContext(ctx, "Transition rejected",
		"from", string(from),
		"trigger", string(trigger),
		"reason", err,
	)
}

func (l *DefaultLogger) EffectFailed(ctx context.Context, from, to State, trigger Trigger, err error) {
	l.logger.ErrorContext(ctx, "Transition effect failed",
		"from", string(from),
		"to", string(to),
		"trigger", string(trigger),
		"error", err,
	)
}

func (l *DefaultLogger) TransitionReverted(ctx context.Context, from, to State) {
	l.logger.InfoContext(ctx, "Transition reverted",
		"from", string(from),
		"to", string(to),
	)
}

// NopLogger discards all machine log output.
type NopLogger struct{}

func (NopLogger) TransitionExecuted(context.Context, State, State, Trigger) {}

func (NopLogger) TransitionRejected(context.Context, State, Trigger, error) {}

func (NopLogger) EffectFailed(context.Context, State, State, Trigger, error) {}

func (NopLogger) TransitionReverted(context.Context, State, State) {}
