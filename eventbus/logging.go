package eventbus

import (
	"context"
	"log/slog"
)

// Logger provides logging hooks for bus activity.
type Logger interface {
	EventPublished(ctx context.Context, topic Topic, seq uint64, listeners int)
	ListenerFailed(ctx context.Context, identity string, topic Topic, err error)
	SubscriptionAdded(identity string, topic Topic)
	SubscriptionRemoved(identity string, topic Topic)
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
// Tests pass slogt.New(t) here to route bus logs through the test runner.
func NewSlogLogger(logger *slog.Logger) *DefaultLogger {
	if logger == nil {
		return NewDefaultLogger()
	}

	return &DefaultLogger{logger: logger}
}

func (l *DefaultLogger) EventPublished(ctx context.Context, topic Topic, seq uint64, listeners int) {
	l.logger.DebugContext(ctx, "Event published",
		"topic", string(topic),
		"seq", seq,
		"listeners", listeners,
	)
}

func (l *DefaultLogger) ListenerFailed(ctx context.Context, identity string, topic Topic, err error) {
	l.logger.ErrorContext(ctx, "Listener failed",
		"identity", identity,
		"topic", string(topic),
		"error", err,
	)
}

func (l *DefaultLogger) SubscriptionAdded(identity string, topic Topic) {
	l.logger.Debug("Subscription added",
		"identity", identity,
		"topic", string(topic),
	)
}

func (l *DefaultLogger) SubscriptionRemoved(identity string, topic Topic) {
	l.logger.Debug("Subscription removed",
		"identity", identity,
		"topic", string(topic),
	)
}

// NopLogger discards all bus log output.
type NopLogger struct{}

func (NopLogger) EventPublished(context.Context, Topic, uint64, int) {}

func (NopLogger) ListenerFailed(context.Context, string, Topic, error) {}

func (NopLogger) SubscriptionAdded(string, Topic) {}

func (NopLogger) SubscriptionRemoved(string, Topic) {}
