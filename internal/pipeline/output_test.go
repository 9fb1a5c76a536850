package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchcore/pipeline/internal/research"
)

func TestOutputStageReportsCompletion(t *testing.T) {
	stage := NewOutputStage()
	state := newState()
	state.Report = "# Acme Corp Research Report"
	reporter := &fakeReporter{}

	delta, err := stage.Run(context.Background(), state, reporter)
	require.NoError(t, err)
	assert.Equal(t, research.Delta{}, delta)

	require.Len(t, reporter.statuses, 1)
	assert.Equal(t, research.StatusCompleted, reporter.statuses[0])
	assert.Equal(t, 100, reporter.progress[0])
}
