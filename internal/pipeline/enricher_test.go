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
	"github.com/researchcore/pipeline/internal/research"
)

func TestEnricherStageFetchesOnlyMissingRawContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URLs []string `json:"urls"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		results := make([]map[string]string, 0, len(body.URLs))
		for _, u := range body.URLs {
			results = append(results, map[string]string{"url": u, "raw_content": "extracted: " + u})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	t.Cleanup(srv.Close)
	client := search.NewWithBaseURL(srv.URL, "test-key", time.Second, time.Second)

	stage := NewEnricherStage(client)
	state := newState()
	state.CuratedFinancialData = map[string]*research.Document{
		"https://already.example": {URL: "https://already.example", RawContent: "already have this"},
		"https://missing.example": {URL: "https://missing.example"},
	}

	delta, err := stage.Run(context.Background(), state, &fakeReporter{})
	require.NoError(t, err)

	assert.Equal(t, "already have this", delta.CuratedFinancialData["https://already.example"].RawContent)
	assert.Equal(t, "extracted: https://missing.example", delta.CuratedFinancialData["https://missing.example"].RawContent)
}

func TestEnricherStageSkipsEmptyCategories(t *testing.T) {
	stage := NewEnricherStage(search.New("unused", time.Second, time.Second))
	state := newState()

	delta, err := stage.Run(context.Background(), state, &fakeReporter{})
	require.NoError(t, err)
	assert.NotNil(t, delta.Messages)
}
