package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/researchcore/pipeline/internal/external/rerank"
	"github.com/researchcore/pipeline/internal/research"
)

const (
	defaultRerankThreshold = 0.4
	curatedCap             = 30
	referenceCap           = 10
)

// CuratorConfig configures curation. Reranker is optional: when nil,
// curation uses each document's upstream search score unchanged, which
// is the distilled specification's only documented behavior.
type CuratorConfig struct {
	Threshold float64
	Reranker  *rerank.Client
}

// NewCuratorStage builds the curator stage: per category, filter
// documents at or above Threshold (optionally rescoring the survivors
// with the reranker), sort by score descending, cap at 30, and merge a
// capped, deduplicated reference list across all four categories.
func NewCuratorStage(cfg CuratorConfig) Stage {
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultRerankThreshold
	}
	c := &curator{cfg: cfg}
	return NewStageFunc("curator", c.run)
}

type curator struct {
	cfg CuratorConfig
}

func (c *curator) run(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error) {
	reporter.Status(research.StatusProcessing, 70, "Curating research data", nil, nil)

	categories := []struct {
		name string
		docs map[string]*research.Document
	}{
		{string(CategoryFinancial), state.FinancialData},
		{string(CategoryNews), state.NewsData},
		{string(CategoryIndustry), state.IndustryData},
		{string(CategoryCompany), state.CompanyData},
	}

	delta := research.Delta{}
	refScore := make(map[string]float64)

	for _, cat := range categories {
		query := fmt.Sprintf("Find highly relevant and recent information about %s in the %s industry.", state.Company, state.Industry)
		curated, err := c.curateCategory(ctx, cat.name, cat.docs, query, reporter)
		if err != nil {
			reporter.Log(fmt.Sprintf("curator: %s failed: %v", cat.name, err))
			curated = map[string]*research.Document{}
		}

		switch Category(cat.name) {
		case CategoryFinancial:
			delta.CuratedFinancialData = curated
		case CategoryNews:
			delta.CuratedNewsData = curated
		case CategoryIndustry:
			delta.CuratedIndustryData = curated
		case CategoryCompany:
			delta.CuratedCompanyData = curated
		}

		for url, doc := range curated {
			score := doc.Score
			if doc.Evaluation != nil {
				score = doc.Evaluation.OverallScore
			}
			if existing, ok := refScore[url]; !ok || score > existing {
				refScore[url] = score
			}
		}
	}

	allReferences := lo.Keys(refScore)
	sort.Slice(allReferences, func(i, j int) bool {
		if refScore[allReferences[i]] != refScore[allReferences[j]] {
			return refScore[allReferences[i]] > refScore[allReferences[j]]
		}
		return allReferences[i] < allReferences[j]
	})
	if len(allReferences) > referenceCap {
		allReferences = allReferences[:referenceCap]
	}
	delta.References = allReferences
	delta.Messages = []string{fmt.Sprintf("Curated %d reference documents", len(allReferences))}

	return delta, nil
}

func (c *curator) curateCategory(ctx context.Context, category string, docs map[string]*research.Document, query string, reporter Reporter) (map[string]*research.Document, error) {
	type scored struct {
		url string
		doc *research.Document
	}
	var survivors []scored
	for url, doc := range docs {
		if doc.Score >= c.cfg.Threshold {
			cp := *doc
			survivors = append(survivors, scored{url: url, doc: &cp})
		}
	}
	if len(survivors) == 0 {
		return map[string]*research.Document{}, nil
	}

	if c.cfg.Reranker != nil {
		texts := lo.Map(survivors, func(s scored, _ int) string { return formatDocumentForEvaluation(s.doc) })
		results, err := c.cfg.Reranker.Rerank(ctx, query, texts, len(survivors))
		if err != nil {
			return nil, err
		}
		rescored := make([]scored, 0, len(results))
		for _, r := range results {
			if r.Index < 0 || r.Index >= len(survivors) {
				continue
			}
			s := survivors[r.Index]
			s.doc.Evaluation = &research.Evaluation{
				OverallScore: r.RelevanceScore,
				Query:        query,
				Explanation:  formatDocumentForEvaluation(s.doc),
			}
			rescored = append(rescored, s)
		}
		survivors = rescored
	} else {
		for i := range survivors {
			survivors[i].doc.Evaluation = &research.Evaluation{OverallScore: survivors[i].doc.Score, Query: query}
		}
	}

	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].doc.Evaluation.OverallScore > survivors[j].doc.Evaluation.OverallScore
	})
	if len(survivors) > curatedCap {
		survivors = survivors[:curatedCap]
	}

	curated := make(map[string]*research.Document, len(survivors))
	for _, s := range survivors {
		curated[s.url] = s.doc
		reporter.Event(research.Event{
			Type: research.TypeDocumentKept,
			Data: research.EventData{Category: category, URL: s.url},
		})
	}
	return curated, nil
}

func formatDocumentForEvaluation(doc *research.Document) string {
	content := doc.Body()
	if len(content) > 1000 {
		content = content[:1000] + "..."
	}
	return fmt.Sprintf("Title: %s\n\nSearch Query: %s\n\nContent: %s", doc.Title, doc.Query, content)
}
