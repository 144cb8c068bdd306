package contexts

import (
	"context"
	"time"
)

// WithIgnoreLifecycle wraps a context to ignore all lifecycle signals
// (cancellation, deadlines, and timeouts) while preserving access to context
// values.
//
// Event handlers that hand work off to a background pool use this to keep the
// publishing call's values (test IDs, trace metadata) without inheriting its
// cancellation: the publish returns immediately, and the detached work should
// not die with the caller's context.
//
// WARNING: code using this context will not respond to cancellation signals,
// so bound the detached work by other means (pool shutdown, iteration limits).
//
// If ctx is nil, returns nil.
func WithIgnoreLifecycle(ctx context.Context) context.Context {
	if ctx == nil {
		return nil
	}

	return &lifecycleInsensitiveContext{
		inner: ctx,
	}
}

// neverClosed is a channel that never closes, shared across all
// lifecycle-insensitive contexts to avoid allocating one per wrapper.
var neverClosed = make(chan struct{})

// lifecycleInsensitiveContext ignores all lifecycle signals from its wrapped
// context while preserving value lookups.
type lifecycleInsensitiveContext struct {
	inner context.Context //nolint:containedctx // This is a context wrapper
}

// Deadline returns a zero time and false, indicating that this context has no deadline.
func (l *lifecycleInsensitiveContext) Deadline() (deadline time.Time, ok bool) {
	return time.Time{}, false
}

// Done returns a channel that will never close.
func (l *lifecycleInsensitiveContext) Done() <-chan struct{} {
	return neverClosed
}

// Err always returns nil, regardless of the wrapped context's state.
func (l *lifecycleInsensitiveContext) Err() error {
	return nil
}

// Value retrieves values from the wrapped context. This is the only method
// that delegates to the inner context.
func (l *lifecycleInsensitiveContext) Value(key any) any {
	return l.inner.Value(key)
}

// Compile-time assertion that lifecycleInsensitiveContext implements context.Context.
var _ context.Context = (*lifecycleInsensitiveContext)(nil)
