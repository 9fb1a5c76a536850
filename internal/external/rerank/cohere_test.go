package rerank

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchcore/pipeline/internal/errs"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithEndpoint(srv.URL, "test-key", time.Second)
}

func TestRerankReturnsScoredResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rerank-v3.5", req.Model)
		assert.Len(t, req.Documents, 2)

		_ = json.NewEncoder(w).Encode(rerankResponse{
			Results: []rerankResult{
				{Index: 1, RelevanceScore: 0.9},
				{Index: 0, RelevanceScore: 0.2},
			},
		})
	})

	scored, err := c.Rerank(t.Context(), "acme revenue", []string{"doc a", "doc b"}, 2)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, 1, scored[0].Index)
	assert.Equal(t, 0.9, scored[0].RelevanceScore)
}

func TestRerankEmptyDocumentsShortCircuits(t *testing.T) {
	c := New("test-key", time.Second)
	scored, err := c.Rerank(t.Context(), "q", nil, 5)
	require.NoError(t, err)
	assert.Nil(t, scored)
}

func TestRerankClassifiesServerErrorAsNonRetryable(t *testing.T) {
	attempts := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Rerank(t.Context(), "q", []string{"doc"}, 1)
	require.Error(t, err)
	assert.Equal(t, errs.ExternalUnavailable, errs.KindOf(err))
	assert.Equal(t, 1, attempts, "server errors are not retried")
}
