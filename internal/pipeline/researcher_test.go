package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchcore/pipeline/internal/external/search"
	"github.com/researchcore/pipeline/internal/llm"
	"github.com/researchcore/pipeline/internal/research"
)

type scriptedModel struct {
	chunks []string
}

func (m scriptedModel) Complete(ctx context.Context, req llm.Request) (string, error) {
	result := ""
	for _, c := range m.chunks {
		result += c
	}
	return result, nil
}

func (m scriptedModel) Stream(ctx context.Context, req llm.Request, fn llm.StreamFunc) (string, error) {
	var full string
	for _, c := range m.chunks {
		full += c
		if err := fn(ctx, llm.Chunk{Text: c}); err != nil {
			return full, err
		}
	}
	return full, nil
}

func newTestSearchClient(t *testing.T, results map[string][]search.Result) *search.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(struct {
			Results []search.Result `json:"results"`
		}{Results: results[body.Query]})
	}))
	t.Cleanup(srv.Close)
	return search.NewWithBaseURL(srv.URL, "test-key", time.Second, time.Second)
}

func TestGenerateQueriesSplitsOnNewlinesAndCaps(t *testing.T) {
	model := scriptedModel{chunks: []string{"query one\n", "query two\n", "query three\n", "query four\n", "query five\n"}}
	r := &researcher{cfg: ResearcherConfig{Category: CategoryFinancial, QueryPrompt: "go", Model: model, MaxQueries: 4, SearchBatch: 4}}

	queries, err := r.generateQueries(context.Background(), newState(), &fakeReporter{})
	require.NoError(t, err)
	assert.Len(t, queries, 4)
	assert.Equal(t, "query one", queries[0])
}

func TestGenerateQueriesErrorsWhenModelFails(t *testing.T) {
	model := failingModel{}
	r := &researcher{cfg: ResearcherConfig{Category: CategoryNews, QueryPrompt: "go", Model: model, MaxQueries: 4, SearchBatch: 4}}

	_, err := r.generateQueries(context.Background(), newState(), &fakeReporter{})
	assert.Error(t, err)
}

type failingModel struct{}

func (failingModel) Complete(ctx context.Context, req llm.Request) (string, error) {
	return "", assert.AnError
}
func (failingModel) Stream(ctx context.Context, req llm.Request, fn llm.StreamFunc) (string, error) {
	return "", assert.AnError
}

func TestRunEmitsErrorEventAndEmptyCategoryOnQueryGenerationFailure(t *testing.T) {
	stage := NewResearcherStage(ResearcherConfig{
		Category:    CategoryFinancial,
		QueryPrompt: "go",
		Model:       failingModel{},
		Search:      search.New("unused", time.Second, time.Second),
	})
	reporter := &fakeReporter{}

	delta, err := stage.Run(context.Background(), newState(), reporter)
	require.NoError(t, err, "a query-generation failure must not fail the stage")
	require.NotNil(t, delta.FinancialData)
	assert.Empty(t, delta.FinancialData)

	var sawErrorEvent bool
	for _, e := range reporter.events {
		if e.Type == research.TypeError && e.Data.Category == string(CategoryFinancial) {
			sawErrorEvent = true
		}
	}
	assert.True(t, sawErrorEvent, "expected a TypeError event scoped to the failed category")
}

func TestSearchAllDedupesByCanonicalURL(t *testing.T) {
	client := newTestSearchClient(t, map[string][]search.Result{
		"q1": {{URL: "https://acme.example/page?utm=1", Title: "Page", Content: "a", Score: 0.5}},
		"q2": {{URL: "https://acme.example/page", Title: "Page dup", Content: "b", Score: 0.9}},
	})
	// SearchBatch: 1 makes the two queries run in sequential batches
	// (rather than concurrently within the same batch), so which one
	// writes the canonical URL first is deterministic.
	r := &researcher{cfg: ResearcherConfig{Category: CategoryCompany, Search: client, SearchBatch: 1}}

	docs := r.searchAll(context.Background(), []string{"q1", "q2"}, &fakeReporter{})
	require.Len(t, docs, 1)
	doc, ok := docs["https://acme.example/page"]
	require.True(t, ok)
	assert.Equal(t, "a", doc.Content, "first write should win on a canonical-URL collision")
}

func TestSearchAllSkipsResultsMissingURLOrContent(t *testing.T) {
	client := newTestSearchClient(t, map[string][]search.Result{
		"q1": {
			{URL: "", Title: "no url", Content: "x"},
			{URL: "https://acme.example", Title: "no content", Content: ""},
			{URL: "https://acme.example/valid", Title: "valid", Content: "x"},
		},
	})
	r := &researcher{cfg: ResearcherConfig{Category: CategoryIndustry, Search: client, SearchBatch: 4}}

	docs := r.searchAll(context.Background(), []string{"q1"}, &fakeReporter{})
	assert.Len(t, docs, 1)
}
