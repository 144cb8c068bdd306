// Package contexts carries typed values through context.Context: generic
// key/value helpers, a flat multi-value wrapper, and a lifecycle-detached
// view for work that outlives its caller.
package contexts

import "context"

// WithValue stores value under key with both types pinned at compile time,
// so mismatched reads fail at the call site instead of at runtime. A nil ctx
// starts from a fresh background context.
func WithValue[K any, V any](ctx context.Context, key K, value V) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, key, value)
}

// GetValue reads the value stored under key and asserts it to V. The boolean
// is false when ctx is nil, the key is absent, or the stored value has a
// different type.
func GetValue[K any, V any](ctx context.Context, key K) (V, bool) {
	var zero V

	if ctx == nil {
		return zero, false
	}

	v, ok := ctx.Value(key).(V)
	if !ok {
		return zero, false
	}

	return v, true
}

// WithMultipleValues attaches multiple key-value pairs to a context in a
// single wrapper instead of one context layer per value, keeping the context
// tree shallow and Value() lookups cheap.
//
// Type parameter Key must be comparable. The function panics if parent or
// vals is nil; an empty map is allowed.
func WithMultipleValues[Key comparable](parent context.Context, vals map[Key]any) context.Context {
	if parent == nil {
		panic("cannot create context from nil parent")
	}

	if vals == nil {
		panic("nil vals passed to WithMultipleValues")
	}

	return &multiValueCtx[Key]{parent, vals}
}

// multiValueCtx stores multiple key-value pairs in one context wrapper.
// Value() checks the local map first and falls back to the parent.
type multiValueCtx[Key comparable] struct {
	context.Context //nolint:containedctx

	vals map[Key]any
}

func (c *multiValueCtx[Key]) Value(key any) any {
	if k, ok := key.(Key); ok {
		if val, found := c.vals[k]; found {
			return val
		}
	}

	return c.Context.Value(key)
}
