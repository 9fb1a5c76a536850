// Package errs defines the error kinds stages and external clients
// report, and the propagation helpers (retry classification, wrapping)
// the pipeline engine uses to decide whether to retry, skip, or
// terminate.
package errs

import (
	"errors"
	"fmt"
)

// Kind is one of the named error categories a stage or client can
// surface. The pipeline engine's reaction (retry, skip-and-continue,
// terminate) depends only on Kind, never on message text.
type Kind string

const (
	// InputInvalid marks a request rejected at submission time (e.g.
	// missing company name).
	InputInvalid Kind = "input_invalid"
	// ExternalUnavailable marks a transport failure or 5xx response from
	// search, extraction, rerank, or the language model, including
	// retryable errors whose retries were exhausted.
	ExternalUnavailable Kind = "external_unavailable"
	// ExternalRateLimited marks a 429-like response from an external
	// service.
	ExternalRateLimited Kind = "external_rate_limited"
	// ExternalTimeout marks a deadline exceeded on a single external
	// call.
	ExternalTimeout Kind = "external_timeout"
	// ContentEmpty marks a stage that produced no usable output (no
	// queries, no documents, an empty report).
	ContentEmpty Kind = "content_empty"
	// Cancelled marks a job that was cancelled.
	Cancelled Kind = "cancelled"
	// Internal marks an invariant violation inside the engine itself.
	Internal Kind = "internal"
)

// Error is a typed error carrying a Kind alongside the usual message and
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error of the given kind.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an existing error.
func Wrap(kind Kind, message string, cause error) error {
	if cause == nil {
		return New(kind, message)
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error,
// defaulting to Internal for errors with no declared kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether a Kind is one the propagation policy retries
// with backoff before escalating to ExternalUnavailable.
func Retryable(kind Kind) bool {
	return kind == ExternalTimeout || kind == ExternalRateLimited
}

// RetryableErr is Retryable applied to an error's classified Kind;
// convenient as a retry.Policy shouldRetry callback.
func RetryableErr(err error) bool {
	return Retryable(KindOf(err))
}
