// Package safe provides panic-safe goroutine launching for stage
// subtasks that run arbitrary, sometimes untrusted-shaped, callback code
// (LLM streaming callbacks, external-service calls) without taking the
// whole process down on an unexpected panic.
package safe

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/researchcore/pipeline/internal/errs"
)

// PanicError represents a recovered panic, captured with enough context
// (timestamp, original value, stack trace) to be logged or attached to a
// job's debug log as an internal error.
type PanicError struct {
	time  time.Time
	info  any
	stack []byte
	cache atomic.Pointer[string]
}

// Error implements the error interface, formatting and caching the
// message on first access.
func (e *PanicError) Error() string {
	if e.cache.Load() == nil {
		msg := fmt.Sprintf("panic: \ntimestamp: %s, \nvalue: %+v, \nstack: %s",
			e.time.Format(time.RFC3339Nano), e.info, string(e.stack))
		e.cache.Store(&msg)
	}
	return *e.cache.Load()
}

// NewPanicError builds a PanicError from a recovered value and stack
// trace.
func NewPanicError(info any, stack []byte) error {
	return &PanicError{time: time.Now(), info: info, stack: stack}
}

// Go launches fn in a new goroutine with panic recovery. Any recovered
// panic is wrapped as a PanicError and handed to each of handlers; if no
// handler is given the panic is simply swallowed (not re-raised), since
// the caller did not ask to observe it.
func Go(fn func(), handlers ...func(error)) {
	wrapped := WithRecover(fn, handlers...)
	if wrapped == nil {
		return
	}
	go wrapped()
}

// WithRecover wraps fn so that a panic during its execution is recovered
// and reported to handlers instead of propagating. The recovered value
// is classified as errs.Internal - a panic is always an invariant
// violation inside the stage, never one of the external-service or
// input kinds - so callers can branch on errs.KindOf like any other
// stage error instead of special-casing *PanicError. Returns nil if fn
// is nil.
func WithRecover(fn func(), handlers ...func(error)) func() {
	if fn == nil {
		return nil
	}
	return func() {
		defer func() {
			if r := recover(); r != nil {
				if len(handlers) == 0 {
					return
				}
				panicErr := NewPanicError(r, debug.Stack())
				err := errs.Wrap(errs.Internal, "recovered panic", panicErr)
				for _, h := range handlers {
					h(err)
				}
			}
		}()
		fn()
	}
}
