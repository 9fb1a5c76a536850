// Package search implements the search and extraction client. No Go SDK
// for Tavily exists anywhere in the retrieved corpus, so this is a
// minimal net/http + encoding/json REST client rather than an adaptation
// of example code; see DESIGN.md for the full justification.
package search

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

const baseURL = "https://api.tavily.com"

// Client is a thin REST client over Tavily's search and extract
// endpoints.
type Client struct {
	apiKey         string
	baseURL        string
	httpClient     *http.Client
	searchTimeout  time.Duration
	extractTimeout time.Duration
}

// New builds a Client. searchTimeout and extractTimeout bound each
// individual request (§5 suggests 30s for search, 60s for extract).
func New(apiKey string, searchTimeout, extractTimeout time.Duration) *Client {
	return NewWithBaseURL(baseURL, apiKey, searchTimeout, extractTimeout)
}

// NewWithBaseURL builds a Client against a non-default base URL, for
// tests that stand up a local stand-in for Tavily's API.
func NewWithBaseURL(base, apiKey string, searchTimeout, extractTimeout time.Duration) *Client {
	return &Client{
		apiKey:         apiKey,
		baseURL:        base,
		httpClient:     &http.Client{},
		searchTimeout:  searchTimeout,
		extractTimeout: extractTimeout,
	}
}

// Result is a single search hit.
type Result struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type searchRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	IncludeRawContent bool   `json:"include_raw_content"`
	MaxResults        int    `json:"max_results"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Search runs one query against Tavily's /search endpoint, retrying up
// to retry.Search.MaxAttempts times on timeout/rate-limit classified
// errors.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	var results []Result
	err := retry.Do(ctx, retry.Search, errs.RetryableErr, func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, c.searchTimeout)
		defer cancel()

		body, err := json.Marshal(searchRequest{
			APIKey:            c.apiKey,
			Query:             query,
			SearchDepth:       "basic",
			IncludeRawContent: false,
			MaxResults:        maxResults,
		})
		if err != nil {
			return errs.Wrap(errs.Internal, "marshal tavily search request", err)
		}

		var out searchResponse
		if err := c.post(reqCtx, "/search", body, &out); err != nil {
			return err
		}
		results = out.Results
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

type extractRequest struct {
	APIKey string   `json:"api_key"`
	URLs   []string `json:"urls"`
}

type extractedItem struct {
	URL        string `json:"url"`
	RawContent string `json:"raw_content"`
}

type extractResponse struct {
	Results       []extractedItem `json:"results"`
	FailedResults []string        `json:"failed_results"`
}

// Extract fetches full page content for one URL via Tavily's /extract
// endpoint. Returns errs.ContentEmpty if Tavily reports the URL as a
// failed result.
func (c *Client) Extract(ctx context.Context, url string) (string, error) {
	var content string
	err := retry.Do(ctx, retry.Search, errs.RetryableErr, func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, c.extractTimeout)
		defer cancel()

		body, err := json.Marshal(extractRequest{APIKey: c.apiKey, URLs: []string{url}})
		if err != nil {
			return errs.Wrap(errs.Internal, "marshal tavily extract request", err)
		}

		var out extractResponse
		if err := c.post(reqCtx, "/extract", body, &out); err != nil {
			return err
		}
		if len(out.Results) == 0 {
			return errs.New(errs.ContentEmpty, fmt.Sprintf("no extracted content for %s", url))
		}
		content = out.Results[0].RawContent
		if content == "" {
			return errs.New(errs.ContentEmpty, fmt.Sprintf("empty extracted content for %s", url))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errs.Wrap(errs.Internal, "build tavily request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errs.Wrap(errs.ExternalTimeout, "tavily request timed out", err)
		}
		return errs.Wrap(errs.ExternalUnavailable, "tavily request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.ExternalUnavailable, "read tavily response", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errs.New(errs.ExternalRateLimited, "tavily rate limited")
	case resp.StatusCode >= 500:
		return errs.New(errs.ExternalUnavailable, fmt.Sprintf("tavily server error: %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return errs.New(errs.InputInvalid, fmt.Sprintf("tavily rejected request: %d %s", resp.StatusCode, data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errs.Wrap(errs.Internal, "decode tavily response", err)
	}
	return nil
}
