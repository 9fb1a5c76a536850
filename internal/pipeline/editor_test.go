package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchcore/pipeline/internal/errs"
	"github.com/researchcore/pipeline/internal/llm"
	"github.com/researchcore/pipeline/internal/research"
)

// sequencedModel returns one text per call in order, so tests can make
// the compile pass succeed and the polish pass fail (or vice versa).
type sequencedModel struct {
	texts []string
	errs  []error
	calls int
}

func (m *sequencedModel) Complete(ctx context.Context, req llm.Request) (string, error) {
	return "", nil
}

func (m *sequencedModel) Stream(ctx context.Context, req llm.Request, fn llm.StreamFunc) (string, error) {
	i := m.calls
	m.calls++
	var text string
	var err error
	if i < len(m.texts) {
		text = m.texts[i]
	}
	if i < len(m.errs) {
		err = m.errs[i]
	}
	if err != nil {
		return "", err
	}
	if text != "" {
		if fnErr := fn(ctx, llm.Chunk{Text: text}); fnErr != nil {
			return "", fnErr
		}
	}
	return text, nil
}

func stateWithBriefings() *research.State {
	state := newState()
	state.CompanyBriefing = "company briefing"
	state.References = []string{"https://a.example"}
	return state
}

func TestEditorRunAppendsReferencesAfterPolish(t *testing.T) {
	model := &sequencedModel{texts: []string{"# Initial\ncompiled", "# Polished\nfinal"}}
	stage := NewEditorStage(model)

	delta, err := stage.Run(context.Background(), stateWithBriefings(), &fakeReporter{})
	require.NoError(t, err)
	require.NotNil(t, delta.Report)
	assert.True(t, strings.HasPrefix(*delta.Report, "# Polished\nfinal"))
	assert.Contains(t, *delta.Report, "## References")
	assert.Contains(t, *delta.Report, "https://a.example")
}

func TestEditorRunFailsJobWhenPolishPassErrors(t *testing.T) {
	model := &sequencedModel{
		texts: []string{"# Initial\ncompiled", ""},
		errs:  []error{nil, errors.New("provider unavailable")},
	}
	stage := NewEditorStage(model)

	_, err := stage.Run(context.Background(), stateWithBriefings(), &fakeReporter{})
	require.Error(t, err)
	assert.Equal(t, errs.ExternalUnavailable, errs.KindOf(err))
}

func TestEditorRunFailsJobWhenPolishPassProducesEmptyReport(t *testing.T) {
	model := &sequencedModel{texts: []string{"# Initial\ncompiled", "   "}}
	stage := NewEditorStage(model)

	_, err := stage.Run(context.Background(), stateWithBriefings(), &fakeReporter{})
	require.Error(t, err)
	assert.Equal(t, errs.ContentEmpty, errs.KindOf(err))
}

func TestEditorRunFailsJobWhenNoBriefingsAvailable(t *testing.T) {
	model := &sequencedModel{}
	stage := NewEditorStage(model)

	_, err := stage.Run(context.Background(), newState(), &fakeReporter{})
	require.Error(t, err)
	assert.Equal(t, errs.ContentEmpty, errs.KindOf(err))
}
