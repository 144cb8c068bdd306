package envutil

import (
	"errors"
	"fmt"
	"log/slog"
)

// Reader errors. Value wraps one of these around the key and cause, so
// callers can errors.Is without parsing the message.
var (
	ErrBadEnvVar     = errors.New("error parsing environment variable")
	ErrEnvVarMissing = errors.New("missing environment variable")
)

// Reader carries the result of reading one environment variable: the raw
// presence of the key, the parsed value, and any parse error. It is a small
// immutable value; the With* combinators return rewritten copies, which is
// what lets the Option constructors chain.
type Reader[A any] struct {
	key     string
	present bool
	err     error

	value A
}

// usable reports whether the Reader holds a value a caller can take as is.
func (e Reader[A]) usable() bool {
	return e.present && e.err == nil
}

// Key returns the environment variable key the Reader was built from.
func (e Reader[A]) Key() string {
	return e.key
}

// Value returns the parsed value. A missing variable fails with
// ErrEnvVarMissing, a parse failure with ErrBadEnvVar wrapping the cause.
func (e Reader[A]) Value() (A, error) { //nolint:ireturn
	if e.err != nil {
		return e.value, fmt.Errorf("%w %s: %w (given value is %v)", ErrBadEnvVar, e.key, e.err, e.value)
	}

	if !e.present {
		return e.value, fmt.Errorf("%w %s", ErrEnvVarMissing, e.key)
	}

	return e.value, nil
}

// ValueOrPanic returns the parsed value, panicking on a missing variable or
// parse failure. Meant for process startup where the variable is mandatory.
func (e Reader[A]) ValueOrPanic() A { //nolint:ireturn
	value, err := e.Value()
	if err != nil {
		panic(err)
	}

	return value
}

// ValueOrElse returns the parsed value, or v when the variable is missing or
// failed to parse. A parse failure is logged before falling back; a plain
// missing variable is not.
func (e Reader[A]) ValueOrElse(v A) A { //nolint:ireturn
	if e.usable() {
		return e.value
	}

	if e.err != nil {
		slog.Warn("error reading environment variable, using fallback value",
			"key", e.key, "value", e.value, "error", e.err, "fallback", v)
	}

	return v
}

// DoWithValue runs f with the parsed value, or not at all when the variable
// is missing or failed to parse.
func (e Reader[A]) DoWithValue(f func(A)) {
	if e.usable() {
		f(e.value)
	}
}

// HasValue reports whether the Reader holds a usable value.
func (e Reader[A]) HasValue() bool {
	return e.usable()
}

// HasError reports whether reading or parsing failed.
func (e Reader[A]) HasError() bool {
	return e.err != nil
}

// Error returns the parse error, or nil.
func (e Reader[A]) Error() error {
	return e.err
}

// String renders the Reader as key=value, key=<error: ...>, or key=<not set>.
func (e Reader[A]) String() string {
	switch {
	case e.usable():
		return fmt.Sprintf("%s=%v", e.key, e.value)
	case e.err != nil:
		return fmt.Sprintf("%s=<error: %v>", e.key, e.err)
	default:
		return e.key + "=<not set>"
	}
}

// WithErrorIfMissing turns a missing variable into the given error. A usable
// or already-failed Reader passes through unchanged.
func (e Reader[A]) WithErrorIfMissing(err error) Reader[A] {
	if e.present || e.err != nil {
		return e
	}

	return Reader[A]{
		key: e.key,
		err: err,
	}
}

// WithDefault substitutes v when the variable is missing. A present value
// passes through, parse error included, so defaults never mask a bad value.
func (e Reader[A]) WithDefault(v A) Reader[A] {
	if e.present {
		return e
	}

	return Reader[A]{
		key:     e.key,
		present: true,
		err:     e.err,
		value:   v,
	}
}

// WithFallback substitutes the fallback Reader when the variable is missing.
func (e Reader[A]) WithFallback(v Reader[A]) Reader[A] {
	if e.present {
		return e
	}

	return v
}

// Map transforms the value in place. For a type-changing transform use the
// free function Map.
func (e Reader[A]) Map(f func(A) (A, error)) Reader[A] {
	return Map(e, f)
}

// Map transforms a Reader's value through f, possibly to another type. A
// missing or failed Reader passes through untransformed; a transform error
// becomes the Reader's parse error.
func Map[A any, B any](env Reader[A], f func(A) (B, error)) Reader[B] {
	if !env.usable() {
		return Reader[B]{
			key:     env.key,
			present: env.present,
			err:     env.err,
		}
	}

	val, err := f(env.value)

	return Reader[B]{
		key:     env.key,
		present: true,
		err:     err,
		value:   val,
	}
}
