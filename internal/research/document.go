package research

import (
	"fmt"
	"net/url"
	"strings"
)

// Source tags where a Document's content came from.
type Source string

const (
	SourceWebSearch      Source = "web_search"
	SourceCompanyWebsite Source = "company_website"
)

// Evaluation is attached to a Document by the curator once it survives
// the relevance threshold. Explanation is populated only when a reranker
// is configured; it is always empty on the upstream-score-only path.
type Evaluation struct {
	OverallScore float64
	Query        string
	Explanation  string
}

// Document is a single search result, identified by its canonical URL,
// optionally enriched with full extracted text and a curator evaluation.
//
// Invariant: within a category map, the map key always equals URL. Every
// constructor and mutation path in this package preserves that.
type Document struct {
	URL        string
	Title      string
	Content    string
	RawContent string
	Query      string
	Source     Source
	Score      float64
	Evaluation *Evaluation
}

// HasRawContent reports whether full text has been extracted for this
// document, i.e. whether the enricher still needs to fetch it.
func (d *Document) HasRawContent() bool {
	return strings.TrimSpace(d.RawContent) != ""
}

// Body returns RawContent if present, otherwise the short search-result
// Content — the text the briefing stage assembles prompts from.
func (d *Document) Body() string {
	if d.HasRawContent() {
		return d.RawContent
	}
	return d.Content
}

// CanonicalizeURL normalizes a URL per the data-model invariant: strips
// the query string and fragment, ensures a scheme, and removes a single
// trailing slash. It is idempotent — canonicalizing an already-canonical
// URL returns the same string.
func CanonicalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("research: empty URL")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("research: invalid URL %q: %w", raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("research: URL %q has no host", raw)
	}

	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String(), nil
}
