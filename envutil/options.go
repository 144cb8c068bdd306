package envutil

// Option rewrites a Reader before the caller inspects it. The typed
// constructors (String, Bool, Int, Duration) apply options in order, so
// later options see the effect of earlier ones.
type Option[T any] func(Reader[T]) Reader[T]

// Default substitutes dfl when the variable is unset. Parse errors are not
// masked; only a missing value takes the default.
func Default[T any](dfl T) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return rdr.WithDefault(dfl)
	}
}

// IfMissing makes an unset variable an error. The given error is what Value
// returns, so callers can errors.Is against their own sentinel.
func IfMissing[T any](err error) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return rdr.WithErrorIfMissing(err)
	}
}

// Fallback consults another Reader when the variable is unset. Chains
// compose: the fallback may itself carry a fallback.
func Fallback[T any](f Reader[T]) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return rdr.WithFallback(f)
	}
}

// Validate runs f over a successfully parsed value. A validation error
// surfaces through Value like a parse error would.
func Validate[T any](f func(T) error) Option[T] {
	return func(rdr Reader[T]) Reader[T] {
		return rdr.Map(func(val T) (T, error) {
			err := f(val)

			return val, err
		})
	}
}
