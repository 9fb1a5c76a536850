package pipeline

import (
	"context"

	"github.com/researchcore/pipeline/internal/research"
)

// NewOutputStage builds the terminal stage: it reports the job completed
// with the final report attached, nothing else. Persistence (write-
// through, never read on the hot path) is out of scope for this stage;
// a Manager wraps Engine.Run and is responsible for any persistence
// side effect once this stage's Delta has been merged.
func NewOutputStage() Stage {
	return NewStageFunc("output", func(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error) {
		result := &research.Result{Report: state.Report, Company: state.Company}
		reporter.Status(research.StatusCompleted, 100, "Research complete", nil, result)
		return research.Delta{}, nil
	})
}
