// Package sync provides concurrency primitives that build on, rather than
// replace, the standard library's sync package. It is named sync to
// mirror the vocabulary callers already know; importers alias it as
// xsync to avoid shadowing the standard library package.
package sync

import "context"

// Limiter is a counting semaphore bounding how many callers may hold a
// resource at once. It caps the researchers' search-query batches so
// that a slow external service degrades the stage it belongs to without
// starving unrelated stages sharing the process.
//
// Example:
//
//	limiter := xsync.NewLimiter(4)
//	limiter.Acquire()
//	defer limiter.Release()
//	// at most 4 goroutines execute past this point concurrently
type Limiter struct {
	semaphore chan struct{}
}

// NewLimiter creates a Limiter permitting at most max concurrent holders.
// Panics if max <= 0, since a zero-or-negative limiter can never be
// acquired and is almost certainly a configuration mistake.
func NewLimiter(max int) *Limiter {
	if max <= 0 {
		panic("sync: limiter max must be positive")
	}
	return &Limiter{semaphore: make(chan struct{}, max)}
}

// Acquire blocks until a slot is available.
func (l *Limiter) Acquire() {
	l.semaphore <- struct{}{}
}

// AcquireContext blocks until a slot is available or ctx is done,
// whichever comes first. Callers fanning search or extraction batches
// out behind a Limiter use this instead of Acquire so a cancelled job
// stops queueing new work immediately rather than waiting out the
// current batch.
func (l *Limiter) AcquireContext(ctx context.Context) error {
	select {
	case l.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a previously acquired slot.
func (l *Limiter) Release() {
	<-l.semaphore
}

// TryAcquire attempts to acquire a slot without blocking, reporting
// whether it succeeded.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		return true
	default:
		return false
	}
}
