package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchcore/pipeline/internal/research"
)

func TestStageFuncDelegatesNameAndRun(t *testing.T) {
	called := false
	stage := NewStageFunc("probe", func(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error) {
		called = true
		return research.Delta{Messages: []string{"ran"}}, nil
	})

	assert.Equal(t, "probe", stage.Name())

	delta, err := stage.Run(context.Background(), newState(), &fakeReporter{})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, []string{"ran"}, delta.Messages)
}

func TestStageFuncPropagatesError(t *testing.T) {
	sentinel := errors.New("boom")
	stage := NewStageFunc("failing", func(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error) {
		return research.Delta{}, sentinel
	})

	_, err := stage.Run(context.Background(), newState(), &fakeReporter{})
	assert.ErrorIs(t, err, sentinel)
}
