package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchcore/pipeline/internal/research"
)

func TestCurateCategoryFiltersByThreshold(t *testing.T) {
	c := &curator{cfg: CuratorConfig{Threshold: 0.5}}
	docs := map[string]*research.Document{
		"https://a.example": {URL: "https://a.example", Title: "A", Score: 0.9},
		"https://b.example": {URL: "https://b.example", Title: "B", Score: 0.1},
	}

	curated, err := c.curateCategory(context.Background(), "financial_analyst", docs, "q", &fakeReporter{})
	require.NoError(t, err)

	assert.Len(t, curated, 1)
	assert.Contains(t, curated, "https://a.example")
}

func TestCurateCategoryCapsAtThirty(t *testing.T) {
	c := &curator{cfg: CuratorConfig{Threshold: 0.0}}
	docs := make(map[string]*research.Document, 40)
	for i := 0; i < 40; i++ {
		url := "https://doc.example/" + string(rune('a'+i%26)) + string(rune('0'+i/26))
		docs[url] = &research.Document{URL: url, Score: float64(i) / 40}
	}

	curated, err := c.curateCategory(context.Background(), "news_scanner", docs, "q", &fakeReporter{})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(curated), curatedCap)
}

func TestCurateCategoryEmptyWhenNoSurvivors(t *testing.T) {
	c := &curator{cfg: CuratorConfig{Threshold: 0.9}}
	docs := map[string]*research.Document{
		"https://a.example": {URL: "https://a.example", Score: 0.1},
	}
	curated, err := c.curateCategory(context.Background(), "industry_analyst", docs, "q", &fakeReporter{})
	require.NoError(t, err)
	assert.Empty(t, curated)
}

func TestNewCuratorStageDefaultsThreshold(t *testing.T) {
	stage := NewCuratorStage(CuratorConfig{})
	c := stage.(*StageFunc)
	assert.Equal(t, "curator", c.Name())

	state := newState()
	state.FinancialData = map[string]*research.Document{
		"https://low.example":  {URL: "https://low.example", Score: 0.3},
		"https://high.example": {URL: "https://high.example", Score: 0.5},
	}
	delta, err := stage.Run(context.Background(), state, &fakeReporter{})
	require.NoError(t, err)
	assert.Len(t, delta.CuratedFinancialData, 1, "a zero Threshold defaults to 0.4")
	assert.Contains(t, delta.CuratedFinancialData, "https://high.example")
}

func TestCuratorRunAggregatesReferencesAcrossCategories(t *testing.T) {
	stage := NewCuratorStage(CuratorConfig{Threshold: 0.0})
	state := newState()
	state.FinancialData = map[string]*research.Document{
		"https://fin.example": {URL: "https://fin.example", Score: 0.8},
	}
	state.NewsData = map[string]*research.Document{
		"https://news.example": {URL: "https://news.example", Score: 0.7},
	}

	delta, err := stage.Run(context.Background(), state, &fakeReporter{})
	require.NoError(t, err)
	assert.Contains(t, delta.References, "https://fin.example")
	assert.Contains(t, delta.References, "https://news.example")
	assert.NotNil(t, delta.CuratedFinancialData)
	assert.NotNil(t, delta.CuratedNewsData)

	require.Len(t, delta.References, 2)
	assert.Equal(t, []string{"https://fin.example", "https://news.example"}, delta.References,
		"higher-scored fin.example (0.8) must precede news.example (0.7)")
}
