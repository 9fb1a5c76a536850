package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/researchcore/pipeline/internal/errs"
	"github.com/researchcore/pipeline/internal/research"
	"github.com/researchcore/pipeline/pkg/flow"
)

// Engine drives a research.State through the fixed stage DAG:
// grounding -> {financial, news, industry, company} (parallel) ->
// collector -> curator -> enricher -> briefing -> editor -> output.
// The progress percentages reported at each step (5, 10..60, 70, 80,
// 90, 95, 100) are the authoritative schedule from the component
// design; they are not bit-compatible with any other system's reporting.
type Engine struct {
	grounding   Stage
	researchers []Stage
	collector   Stage
	curator     Stage
	enricher    Stage
	briefing    Stage
	editor      Stage
	output      Stage
}

// NewEngine assembles an Engine from its stages. researchers may hold
// any number of stages, all run in parallel; the production wiring
// passes the four category researcher stages built by
// NewResearcherStage.
func NewEngine(grounding Stage, researchers []Stage, collector, curator, enricher, briefing, editor, output Stage) *Engine {
	return &Engine{
		grounding:   grounding,
		researchers: researchers,
		collector:   collector,
		curator:     curator,
		enricher:    enricher,
		briefing:    briefing,
		editor:      editor,
		output:      output,
	}
}

// Run executes the full pipeline against state, returning the final
// State once every stage (including output) has completed. An error
// from any stage other than a researcher aborts the run (researcher
// failures are isolated per category and degrade the run instead of
// aborting it, per the error handling design); a context cancellation
// at any suspension point between stages is translated into an
// errs.Cancelled failure.
func (e *Engine) Run(ctx context.Context, state *research.State, reporter Reporter) (*research.State, error) {
	runStage := func(stage Stage, s *research.State) (*research.State, error) {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(errs.Cancelled, fmt.Sprintf("cancelled before stage %s", stage.Name()), err)
		}
		delta, err := stage.Run(ctx, s, reporter)
		if err != nil {
			return nil, err
		}
		return research.Merge(s, delta), nil
	}

	state, err := runStage(e.grounding, state)
	if err != nil {
		return nil, err
	}

	state, err = e.runResearchers(ctx, state, reporter)
	if err != nil {
		return nil, err
	}

	state, err = runStage(e.collector, state)
	if err != nil {
		return nil, err
	}

	state, err = runStage(e.curator, state)
	if err != nil {
		return nil, err
	}

	state, err = runStage(e.enricher, state)
	if err != nil {
		return nil, err
	}

	state, err = runStage(e.briefing, state)
	if err != nil {
		return nil, err
	}

	state, err = runStage(e.editor, state)
	if err != nil {
		return nil, err
	}

	state, err = runStage(e.output, state)
	if err != nil {
		return nil, err
	}

	return state, nil
}

// runResearchers fans the four category researchers out in parallel via
// pkg/flow's generic Parallel node, reporting overall progress as each
// one finishes: 10% at the start, +10% per completion (20% after the
// first), capped at 60%. A single researcher's failure is logged and treated as
// an empty category contribution rather than aborting the run.
func (e *Engine) runResearchers(ctx context.Context, state *research.State, reporter Reporter) (*research.State, error) {
	reporter.Status(research.StatusProcessing, 10, "Starting category research", nil, nil)

	var completed atomic.Int32

	parallel := flow.NewParallel[*research.State, []research.Delta]().
		WithAggregator(func(ctx context.Context, results []any) ([]research.Delta, error) {
			deltas := make([]research.Delta, 0, len(results))
			for _, r := range results {
				if r == nil {
					continue
				}
				deltas = append(deltas, r.(research.Delta))
			}
			return deltas, nil
		}).
		WithContinueOnError()

	for _, stage := range e.researchers {
		stage := stage
		parallel.AddProcessors(flow.AsProcessor(func(ctx context.Context, s *research.State) (any, error) {
			delta, err := stage.Run(ctx, s, reporter)
			n := completed.Add(1)
			progress := 10 + int(n)*10
			if progress > 60 {
				progress = 60
			}
			if err != nil {
				reporter.Log(fmt.Sprintf("%s failed: %v", stage.Name(), err))
				reporter.Status(research.StatusProcessing, progress, fmt.Sprintf("%s research failed, continuing", stage.Name()), nil, nil)
				return research.Delta{}, nil
			}
			reporter.Status(research.StatusProcessing, progress, fmt.Sprintf("%s research complete", stage.Name()), nil, nil)
			return delta, nil
		}))
	}

	deltas, err := parallel.Run(ctx, state)
	if err != nil {
		return nil, err
	}
	return research.MergeAll(state, deltas...), nil
}
