package pipeline

import (
	"context"
	"fmt"

	"github.com/researchcore/pipeline/internal/research"
)

// NewCollectorStage builds the fan-in barrier between the four
// researchers and the curator, named after original_source's
// nodes/collector.py. By the time the engine invokes this stage the
// four researcher deltas have already been merged into state by
// MergeAll, so this stage's only job is to announce the aggregate and
// pass the state through unchanged - it carries no logic of its own,
// matching the supplement's "zero-logic stage" framing.
func NewCollectorStage() Stage {
	return NewStageFunc("collector", func(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error) {
		total := len(state.FinancialData) + len(state.NewsData) + len(state.IndustryData) + len(state.CompanyData)
		reporter.Event(research.CategoryEvent(research.TypeCategoryComplete, "collector", fmt.Sprintf("Collected %d documents across all categories", total)))
		return research.Delta{Messages: []string{fmt.Sprintf("Collector: merged %d documents", total)}}, nil
	})
}
