package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// Parallel runs a fixed set of processors against the same input
// concurrently and aggregates their results. Generic parameters I and O
// are the shared input type and the aggregated output type.
//
// Concurrency is delegated to conc/pool rather than hand-rolled
// goroutines and channels: each processor becomes one pool task, bounded
// by WithMaxGoroutines. A panic inside a task is caught by the pool and
// re-raised from Run on the calling goroutine once all tasks finish.
type Parallel[I any, O any] struct {
	processors      []Processor[I, any]
	maxGoroutines   int
	continueOnError bool
	aggregator      func(context.Context, []any) (O, error)
}

// NewParallel creates an empty Parallel node; configure it with
// AddProcessors and WithAggregator before running it.
func NewParallel[I any, O any]() *Parallel[I, O] {
	return &Parallel[I, O]{}
}

// AddProcessors registers one or more processors to run concurrently
// against the same input.
func (p *Parallel[I, O]) AddProcessors(processors ...Processor[I, any]) *Parallel[I, O] {
	p.processors = append(p.processors, processors...)
	return p
}

// WithAggregator sets the function combining the per-processor results
// (in processor-registration order, independent of completion order)
// into the final output.
func (p *Parallel[I, O]) WithAggregator(fn func(context.Context, []any) (O, error)) *Parallel[I, O] {
	p.aggregator = fn
	return p
}

// WithMaxGoroutines bounds how many processors run concurrently. A value
// <= 0 means unbounded (one goroutine per processor).
func (p *Parallel[I, O]) WithMaxGoroutines(n int) *Parallel[I, O] {
	p.maxGoroutines = n
	return p
}

// WithContinueOnError makes a failing processor leave a nil result in
// its slot instead of aborting the whole Parallel run; the processor's
// error is discarded and not returned by Run. Use this when individual branch failures should degrade
// gracefully (e.g. a researcher returning an empty category map).
func (p *Parallel[I, O]) WithContinueOnError() *Parallel[I, O] {
	p.continueOnError = true
	return p
}

func (p *Parallel[I, O]) validate() error {
	if len(p.processors) == 0 {
		return errors.New("flow: parallel node has no processors")
	}
	if p.aggregator == nil {
		return errors.New("flow: parallel node has no aggregator")
	}
	return nil
}

// Run implements Node. It launches every processor, waits for all of
// them, then aggregates.
func (p *Parallel[I, O]) Run(ctx context.Context, input I) (o O, err error) {
	if err = p.validate(); err != nil {
		return
	}

	results := make([]any, len(p.processors))
	errPool := pool.New().WithErrors().WithContext(ctx)
	if p.maxGoroutines > 0 {
		errPool = errPool.WithMaxGoroutines(p.maxGoroutines)
	}

	for i, proc := range p.processors {
		i, proc := i, proc
		errPool.Go(func(ctx context.Context) error {
			out, rerr := proc.Run(ctx, input)
			if rerr != nil {
				if p.continueOnError {
					return nil
				}
				return fmt.Errorf("processor %d: %w", i, rerr)
			}
			results[i] = out
			return nil
		})
	}

	if err = errPool.Wait(); err != nil {
		return
	}
	return p.aggregator(ctx, results)
}
