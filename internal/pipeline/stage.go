// Package pipeline wires the DAG of stages described in the component
// design — grounding, four parallel researchers, collector, curator,
// enricher, briefing, editor, output — into a single Engine that drives
// a research.State from request to finished report.
package pipeline

import (
	"context"

	"github.com/researchcore/pipeline/internal/research"
)

// Reporter is the engine's window onto the job driving this pipeline
// run. internal/jobs.jobReporter implements this structurally, without
// this package ever importing internal/jobs, to avoid a dependency
// cycle (Manager, in internal/jobs, holds an *Engine).
type Reporter interface {
	Status(status research.Status, progress int, message string, err error, result *research.Result)
	Event(e research.Event)
	Log(message string)
}

// Stage is one node of the pipeline DAG. It reads an immutable State
// snapshot and returns a Delta describing what it contributed; the
// engine is solely responsible for merging deltas back into the shared
// State.
type Stage interface {
	Name() string
	Run(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error)
}

// StageFunc adapts a plain function to the Stage interface.
type StageFunc struct {
	name string
	fn   func(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error)
}

// NewStageFunc builds a Stage from a name and function.
func NewStageFunc(name string, fn func(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error)) Stage {
	return &StageFunc{name: name, fn: fn}
}

func (s *StageFunc) Name() string { return s.name }

func (s *StageFunc) Run(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error) {
	return s.fn(ctx, state, reporter)
}
