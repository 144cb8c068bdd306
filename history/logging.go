package history

import (
	"context"
	"log/slog"
)

// Logger provides logging hooks for stack activity.
type Logger interface {
	CommandApplied(ctx context.Context, command string, depth int)
	CommandFailed(ctx context.Context, command string, err error)
	CommandUndone(ctx context.Context, command string, depth int)
	UndoFailed(ctx context.Context, command string, err error)
	EntryEvicted(ctx context.Context, command string)
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
// Tests pass slogt.New(t) here to route stack logs through the test runner.
func NewSlogLogger(logger *slog.Logger) *DefaultLogger {
	if logger == nil {
		return NewDefaultLogger()
	}

	return &DefaultLogger{logger: logger}
}

func (l *DefaultLogger) CommandApplied(ctx context.Context, command string, depth int) {
	l.logger.DebugContext(ctx, "Command applied",
		"command", command,
		"depth", depth,
	)
}

func (l *DefaultLogger) CommandFailed(ctx context.Context, command string, err error) {
	l.logger.ErrorContext(ctx, "Command failed",
		"command", command,
		"error", err,
	)
}

func (l *DefaultLogger) CommandUndone(ctx context.Context, command string, depth int) {
	l.logger.DebugContext(ctx, "Command undone",
		"command", command,
		"depth", depth,
	)
}

func (l *DefaultLogger) UndoFailed(ctx context.Context, command string, err error) {
	l.logger.ErrorContext(ctx, "Undo failed",
		"command", command,
		"error", err,
	)
}

func (l *DefaultLogger) EntryEvicted(ctx context.Context, command string) {
	l.logger.WarnContext(ctx, "History entry evicted",
		"command", command,
	)
}

// NopLogger discards all stack log output.
type NopLogger struct{}

func (NopLogger) CommandApplied(context.Context, string, int) {}

func (NopLogger) CommandFailed(context.Context, string, error) {}

func (NopLogger) CommandUndone(context.Context, string, int) {}

func (NopLogger) UndoFailed(context.Context, string, error) {}

func (NopLogger) EntryEvicted(context.Context, string) {}
