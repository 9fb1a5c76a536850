// Package retry implements the bounded retry-with-backoff policy from
// the error handling design: retryable failures (timeout, rate limit)
// are retried a fixed number of times with exponential backoff; any
// other failure is returned as-is for the caller to classify, and a
// failure still retryable once attempts are exhausted is returned
// wrapped as errs.ExternalUnavailable.
//
// No retry library appears anywhere in the retrieved corpus, so this is
// a small hand-rolled helper rather than an adaptation of example code.
package retry

import (
	"context"
	"time"

	"github.com/researchcore/pipeline/internal/errs"
)

// Policy configures attempt count and backoff.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Search and Extract get 3 attempts per the error handling design; LLM
// calls get 2.
var (
	Search = Policy{MaxAttempts: 3, BaseDelay: 250 * time.Millisecond}
	LLM    = Policy{MaxAttempts: 2, BaseDelay: 500 * time.Millisecond}
)

// Do runs fn up to p.MaxAttempts times, backing off exponentially between
// attempts, stopping early if shouldRetry returns false for the most
// recent error or the context is cancelled. Once attempts are exhausted
// it returns the last error observed, wrapped as errs.ExternalUnavailable.
func Do(ctx context.Context, p Policy, shouldRetry func(error) bool, fn func(ctx context.Context) error) error {
	var err error
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if shouldRetry != nil && !shouldRetry(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		delay := p.BaseDelay << uint(attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return errs.Wrap(errs.ExternalUnavailable, "retries exhausted", err)
}
