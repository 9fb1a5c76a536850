// Package result provides a generic value-or-error wrapper for carrying
// a per-item outcome (e.g. one per search query or per extracted
// document) through a slice without an accompanying parallel error
// slice. No other package in this module imports it.
package result

import "fmt"

// Result holds either a successful value of type T or an error.
type Result[T any] struct {
	v   T
	err error
}

// New wraps an existing (value, error) pair, as returned by most Go
// functions.
func New[T any](v T, err error) Result[T] {
	return Result[T]{v: v, err: err}
}

// Value creates a successful Result.
func Value[T any](v T) Result[T] {
	return Result[T]{v: v}
}

// Error creates a failed Result carrying the zero value of T.
func Error[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Get returns the value and error, compatible with traditional Go error
// handling.
func (r Result[T]) Get() (T, error) {
	return r.v, r.err
}

// Ok reports whether the Result holds a value rather than an error.
func (r Result[T]) Ok() bool {
	return r.err == nil
}

// Error returns the wrapped error, or nil if the Result is successful.
func (r Result[T]) Error() error {
	return r.err
}

// Value returns the wrapped value; zero value of T if the Result failed.
func (r Result[T]) Value() T {
	return r.v
}

// String renders the Result for logging.
func (r Result[T]) String() string {
	if r.err != nil {
		return "error: " + r.err.Error()
	}
	return fmt.Sprintf("value: %+v", r.v)
}

// Map transforms the value inside a successful Result, propagating any
// error unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Error[U](r.err)
	}
	return Value(fn(r.v))
}
