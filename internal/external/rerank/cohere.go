// Package rerank implements the optional Cohere rerank-v3.5 client used
// by the curator stage, identified from
// original_source/backend/nodes/curator.py's cohere.Client(...).rerank
// call. As with internal/external/search, no Go SDK for Cohere exists
// in the retrieved corpus, so this is a minimal net/http +
// encoding/json client.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/researchcore/pipeline/internal/errs"
	"github.com/researchcore/pipeline/internal/retry"
)

const endpoint = "https://api.cohere.com/v1/rerank"

// Client reranks a set of documents against a query.
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
}

// New builds a Client. timeout bounds each rerank call (§5 suggests
// treating this as an LLM-class call, 120s).
func New(apiKey string, timeout time.Duration) *Client {
	return NewWithEndpoint(endpoint, apiKey, timeout)
}

// NewWithEndpoint builds a Client against a non-default endpoint, for
// tests that stand up a local stand-in for Cohere's API.
func NewWithEndpoint(endpointURL, apiKey string, timeout time.Duration) *Client {
	return &Client{apiKey: apiKey, endpoint: endpointURL, httpClient: &http.Client{}, timeout: timeout}
}

// Scored pairs a rerank result's original index with its relevance
// score, in the order Cohere returned them (by descending score).
type Scored struct {
	Index          int
	RelevanceScore float64
}

type rerankRequest struct {
	Model           string   `json:"model"`
	Query           string   `json:"query"`
	Documents       []string `json:"documents"`
	TopN            int      `json:"top_n"`
	ReturnDocuments bool     `json:"return_documents"`
}

type rerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
}

// Rerank scores each of documents against query using rerank-v3.5,
// returning at most topN results, retrying up to retry.LLM.MaxAttempts
// times per the LLM-class retry policy.
func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Scored, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	var scored []Scored
	err := retry.Do(ctx, retry.LLM, errs.RetryableErr, func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		body, err := json.Marshal(rerankRequest{
			Model:           "rerank-v3.5",
			Query:           query,
			Documents:       documents,
			TopN:            topN,
			ReturnDocuments: false,
		})
		if err != nil {
			return errs.Wrap(errs.Internal, "marshal cohere rerank request", err)
		}

		req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return errs.Wrap(errs.Internal, "build cohere request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if reqCtx.Err() != nil {
				return errs.Wrap(errs.ExternalTimeout, "cohere rerank timed out", err)
			}
			return errs.Wrap(errs.ExternalUnavailable, "cohere rerank request failed", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return errs.Wrap(errs.ExternalUnavailable, "read cohere response", err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return errs.New(errs.ExternalRateLimited, "cohere rate limited")
		case resp.StatusCode >= 500:
			return errs.New(errs.ExternalUnavailable, fmt.Sprintf("cohere server error: %d", resp.StatusCode))
		case resp.StatusCode >= 400:
			return errs.New(errs.InputInvalid, fmt.Sprintf("cohere rejected request: %d %s", resp.StatusCode, data))
		}

		var out rerankResponse
		if err := json.Unmarshal(data, &out); err != nil {
			return errs.Wrap(errs.Internal, "decode cohere response", err)
		}

		scored = make([]Scored, 0, len(out.Results))
		for _, r := range out.Results {
			scored = append(scored, Scored{Index: r.Index, RelevanceScore: r.RelevanceScore})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scored, nil
}
