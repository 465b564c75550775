// Package options provides a generic functional-option helper used by the
// session server and client builders.
//
// Every builder in this module follows the same shape: a constructor takes a
// config value plus a variadic list of Option[T], and applies them in order
// before validating the result. Centralizing that loop here keeps the
// per-package builder code down to "what does this option set", not "how do
// options get applied".
package options

// Option configures a target of type T. Implementations are created with New
// or NoError; callers never implement the interface directly.
type Option[T any] interface {
	apply(T) error
}

// Func adapts a plain function into an Option[T].
type Func[T any] struct {
	applyFunc func(T) error
}

func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New creates an Option[T] from a function that can fail, e.g. rejecting an
// out-of-range buffer size.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError creates an Option[T] from a function that cannot fail.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}

// Apply runs every option against target in order, stopping at the first
// error.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}
