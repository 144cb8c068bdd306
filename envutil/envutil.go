// Package envutil reads typed configuration from environment variables.
// Each accessor returns a Reader carrying the parsed value or the reason it
// is unusable; combinators and Options decide defaults and error policy
// before the caller inspects it.
package envutil

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// get looks up key in the process environment.
func get(key string) Reader[string] {
	val, ok := os.LookupEnv(key)

	return Reader[string]{
		key:     key,
		present: ok,
		value:   val,
	}
}

// NewReader builds a Reader from caller-supplied state, for values that come
// from somewhere other than the environment but should flow through the same
// combinators.
func NewReader[T any](key string, present bool, err error, value T) Reader[T] {
	return Reader[T]{
		key:     key,
		present: present,
		value:   value,
		err:     err,
	}
}

// NoValue returns a Reader that carries no value and no error.
func NoValue[T any]() Reader[T] {
	return Reader[T]{
		key:     "",
		present: false,
	}
}

// String reads key as-is.
func String(key string, opts ...Option[string]) Reader[string] {
	rdr := get(key)
	for _, opt := range opts {
		rdr = opt(rdr)
	}

	return rdr
}

// Bool reads key as a boolean, accepting the strconv forms plus yes/no and
// on/off.
func Bool(key string, opts ...Option[bool]) Reader[bool] {
	rdr := Map(get(key), parseBool)
	for _, opt := range opts {
		rdr = opt(rdr)
	}

	return rdr
}

// intish covers the signed integer types Int can produce.
type intish interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Int reads key as a signed integer of the requested width.
func Int[I intish](key string, opts ...Option[I]) Reader[I] {
	rdr := Map(get(key), func(s string) (I, error) {
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)

		return I(v), err
	})

	for _, opt := range opts {
		rdr = opt(rdr)
	}

	return rdr
}

// Duration reads key in time.ParseDuration notation.
func Duration(key string, opts ...Option[time.Duration]) Reader[time.Duration] {
	rdr := Map(get(key), func(s string) (time.Duration, error) {
		return time.ParseDuration(strings.TrimSpace(s))
	})

	for _, opt := range opts {
		rdr = opt(rdr)
	}

	return rdr
}

// SlogLevel reads key as a slog level name ("debug", "INFO", "warn+2", ...).
func SlogLevel(key string, opts ...Option[slog.Level]) Reader[slog.Level] {
	rdr := Map(get(key), func(s string) (slog.Level, error) {
		var level slog.Level
		err := level.UnmarshalText([]byte(strings.TrimSpace(s)))

		return level, err
	})

	for _, opt := range opts {
		rdr = opt(rdr)
	}

	return rdr
}

// parseBool accepts the strconv.ParseBool forms plus yes/no and on/off.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "on", "y":
		return true, nil
	case "no", "off", "n":
		return false, nil
	default:
		return strconv.ParseBool(strings.TrimSpace(s))
	}
}
