package pipeline

import (
	"context"
	"fmt"

	"github.com/researchcore/pipeline/internal/external/search"
	"github.com/researchcore/pipeline/internal/research"
)

// NewGroundingStage builds the grounding stage: when a company URL is
// present, extracts the homepage's raw text into state.SiteScrape so
// later researcher stages (notably company_analyst) can seed a
// company-website document without an extra search round-trip.
// Extraction failures are logged, not fatal - a missing site scrape is a
// degraded run, not a failed one, matching the original grounding node's
// behavior of proceeding to research regardless.
func NewGroundingStage(client *search.Client) Stage {
	return NewStageFunc("grounding", func(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error) {
		reporter.Status(research.StatusProcessing, 5, fmt.Sprintf("Starting research for %s", state.Company), nil, nil)

		if state.CompanyURL == "" {
			reporter.Log("no company URL provided, proceeding directly to research phase")
			return research.Delta{Messages: []string{"Grounding complete (no company URL)"}}, nil
		}

		reporter.Log(fmt.Sprintf("analyzing company website: %s", state.CompanyURL))
		content, err := client.Extract(ctx, state.CompanyURL)
		if err != nil {
			reporter.Log(fmt.Sprintf("error extracting website content: %v", err))
			return research.Delta{Messages: []string{"Grounding complete (site extraction failed)"}}, nil
		}

		return research.Delta{
			SiteScrape: &research.SiteScrape{Title: state.Company, RawContent: content},
			Messages:   []string{fmt.Sprintf("Extracted %d characters from company website", len(content))},
		}, nil
	})
}
