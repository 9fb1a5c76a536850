package flow

import (
	"context"
	"errors"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Batch splits an input of type I into segments of type T, processes each
// segment independently (optionally concurrency-limited), and aggregates
// the per-segment results of type R into a final output of type O.
//
// Concurrency is bounded by an ants/v2 pool rather than an unbounded
// goroutine-per-segment fan-out, so a Batch node is safe to use for
// workloads whose segment count is driven by external, untrusted input
// (e.g. one segment per search query or per document to enrich).
type Batch[I any, O any, T any, R any] struct {
	concurrency int
	segmenter   func(context.Context, I) ([]T, error)
	processor   Processor[T, R]
	aggregator  func(context.Context, []R) (O, error)
}

// NewBatch creates an empty Batch node.
func NewBatch[I any, O any, T any, R any]() *Batch[I, O, T, R] {
	return &Batch[I, O, T, R]{}
}

// WithSegmenter sets the function that splits the input into segments.
func (b *Batch[I, O, T, R]) WithSegmenter(fn func(context.Context, I) ([]T, error)) *Batch[I, O, T, R] {
	b.segmenter = fn
	return b
}

// WithProcessor sets the per-segment processing function.
func (b *Batch[I, O, T, R]) WithProcessor(p Processor[T, R]) *Batch[I, O, T, R] {
	b.processor = p
	return b
}

// WithAggregator sets the function combining per-segment results into the
// final output. Results are supplied in segment order.
func (b *Batch[I, O, T, R]) WithAggregator(fn func(context.Context, []R) (O, error)) *Batch[I, O, T, R] {
	b.aggregator = fn
	return b
}

// WithConcurrency bounds how many segments are processed at once. A value
// <= 0 means unbounded.
func (b *Batch[I, O, T, R]) WithConcurrency(n int) *Batch[I, O, T, R] {
	b.concurrency = n
	return b
}

func (b *Batch[I, O, T, R]) validate() error {
	if b.segmenter == nil {
		return errors.New("flow: batch node has no segmenter")
	}
	if b.processor == nil {
		return errors.New("flow: batch node has no processor")
	}
	if b.aggregator == nil {
		return errors.New("flow: batch node has no aggregator")
	}
	return nil
}

// Run implements Node. It segments the input, processes every segment
// (bounded by the configured concurrency), and aggregates the results in
// segment order. A segment's error does not abort sibling segments: the
// aggregator receives the zero value for each failed segment, and when
// the aggregator itself succeeds the per-segment errors are joined into
// the returned error alongside its output.
func (b *Batch[I, O, T, R]) Run(ctx context.Context, input I) (o O, err error) {
	if err = b.validate(); err != nil {
		return
	}

	segments, err := b.segmenter(ctx, input)
	if err != nil {
		return
	}
	if len(segments) == 0 {
		return b.aggregator(ctx, nil)
	}

	size := b.concurrency
	if size <= 0 || size > len(segments) {
		size = len(segments)
	}

	p, perr := ants.NewPool(size, ants.WithNonblocking(false))
	if perr != nil {
		err = perr
		return
	}
	defer p.Release()

	results := make([]R, len(segments))
	errs := make([]error, len(segments))
	var wg sync.WaitGroup

	for i, seg := range segments {
		i, seg := i, seg
		wg.Add(1)
		submitErr := p.Submit(func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			default:
			}
			out, rerr := b.processor.Run(ctx, seg)
			if rerr != nil {
				errs[i] = rerr
				return
			}
			results[i] = out
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	o, err = b.aggregator(ctx, results)
	if err == nil {
		err = errors.Join(errs...)
	}
	return
}

// JoinErrors collects the non-nil errors from a Batch run's per-segment
// failures, for callers that want to surface them alongside a partial
// aggregate.
func JoinErrors(errs []error) error {
	return errors.Join(errs...)
}
