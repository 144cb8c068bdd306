package coordinator

import (
	"context"
	"log/slog"

	"github.com/amp-labs/amp-workflow/eventbus"
	"github.com/amp-labs/amp-workflow/statemachine"
)

// Logger provides logging hooks for coordinator activity.
type Logger interface {
	ActionPerformed(ctx context.Context, action string, state statemachine.State)
	ActionFailed(ctx context.Context, action string, err error)
	UndoExecuted(ctx context.Context, command string, state statemachine.State)
	UndoFailed(ctx context.Context, command string, err error)
	LifecycleActivated(ctx context.Context)
	HistoryTrimmed(command string)
	PublishFailed(ctx context.Context, topic eventbus.Topic, err error)
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
// Tests pass slogt.New(t) here to route coordinator logs through the test
// runner.
func NewSlogLogger(logger *slog.Logger) *DefaultLogger {
	if logger == nil {
		return NewDefaultLogger()
	}

	return &DefaultLogger{logger: logger}
}

func (l *DefaultLogger) ActionPerformed(ctx context.Context, action string, state statemachine.State) {
	l.logger.DebugContext(ctx, "Action performed",
		"action", action,
		"state", string(state),
	)
}

func (l *DefaultLogger) ActionFailed(ctx context.Context, action string, err error) {
	l.logger.ErrorContext(ctx, "Action failed",
		"action", action,
		"error", err,
	)
}

func (l *DefaultLogger) UndoExecuted(ctx context.Context, command string, state statemachine.State) {
	l.logger.DebugContext(ctx, "Undo executed",
		"command", command,
		"state", string(state),
	)
}

func (l *DefaultLogger) UndoFailed(ctx context.Context, command string, err error) {
	l.logger.ErrorContext(ctx, "Undo failed",
		"command", command,
		"error", err,
	)
}

func (l *DefaultLogger) LifecycleActivated(ctx context.Context) {
	l.logger.DebugContext(ctx, "Coordinator activated")
}

func (l *DefaultLogger) HistoryTrimmed(command string) {
	l.logger.Warn("History trimmed",
		"command", command,
	)
}

func (l *DefaultLogger) PublishFailed(ctx context.Context, topic eventbus.Topic, err error) {
	l.logger.ErrorContext(ctx, "Publish failed",
		"topic", string(topic),
		"error", err,
	)
}

// NopLogger discards all coordinator log output.
type NopLogger struct{}

func (NopLogger) ActionPerformed(context.Context, string, statemachine.State) {}

func (NopLogger) ActionFailed(context.Context, string, error) {}

func (NopLogger) UndoExecuted(context.Context, string, statemachine.State) {}

func (NopLogger) UndoFailed(context.Context, string, error) {}

func (NopLogger) LifecycleActivated(context.Context) {}

func (NopLogger) HistoryTrimmed(string) {}

func (NopLogger) PublishFailed(context.Context, eventbus.Topic, error) {}
