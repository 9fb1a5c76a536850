package pipeline

import (
	"context"
	"fmt"

	"github.com/researchcore/pipeline/internal/external/search"
	"github.com/researchcore/pipeline/internal/research"
	"github.com/researchcore/pipeline/pkg/flow"
)

const enrichBatchSize = 20

// NewEnricherStage builds the enricher stage: for each curated document
// still missing full extracted text, fetch it via the search client's
// Extract endpoint, capped at enrichBatchSize documents processed
// concurrently per category. The four categories themselves enrich in
// parallel, via pkg/flow's generic Parallel/Batch nodes.
func NewEnricherStage(client *search.Client) Stage {
	e := &enricher{client: client}
	return NewStageFunc("enricher", e.run)
}

type enricher struct {
	client *search.Client
}

func (e *enricher) run(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error) {
	reporter.Status(research.StatusProcessing, 80, "Enriching curated documents", nil, nil)

	categories := []struct {
		name string
		docs map[string]*research.Document
	}{
		{string(CategoryFinancial), state.CuratedFinancialData},
		{string(CategoryNews), state.CuratedNewsData},
		{string(CategoryIndustry), state.CuratedIndustryData},
		{string(CategoryCompany), state.CuratedCompanyData},
	}

	parallel := flow.NewParallel[int, []enrichedCategory]().
		WithAggregator(func(ctx context.Context, results []any) ([]enrichedCategory, error) {
			out := make([]enrichedCategory, 0, len(results))
			for _, r := range results {
				if r == nil {
					continue
				}
				out = append(out, r.(enrichedCategory))
			}
			return out, nil
		}).
		WithContinueOnError()

	for _, cat := range categories {
		cat := cat
		parallel.AddProcessors(flow.AsProcessor(func(ctx context.Context, _ int) (any, error) {
			docs, err := e.enrichCategory(ctx, cat.name, cat.docs, reporter)
			return enrichedCategory{name: cat.name, docs: docs}, err
		}))
	}

	results, err := parallel.Run(ctx, 0)
	if err != nil {
		reporter.Log(fmt.Sprintf("enricher: %v", err))
	}

	delta := research.Delta{Messages: []string{"Enrichment complete"}}
	for _, r := range results {
		switch Category(r.name) {
		case CategoryFinancial:
			delta.CuratedFinancialData = r.docs
		case CategoryNews:
			delta.CuratedNewsData = r.docs
		case CategoryIndustry:
			delta.CuratedIndustryData = r.docs
		case CategoryCompany:
			delta.CuratedCompanyData = r.docs
		}
	}
	return delta, nil
}

type enrichedCategory struct {
	name string
	docs map[string]*research.Document
}

func (e *enricher) enrichCategory(ctx context.Context, category string, docs map[string]*research.Document, reporter Reporter) (map[string]*research.Document, error) {
	if len(docs) == 0 {
		return docs, nil
	}

	var toExtract []*research.Document
	out := make(map[string]*research.Document, len(docs))
	for url, doc := range docs {
		cp := *doc
		out[url] = &cp
		if !cp.HasRawContent() {
			toExtract = append(toExtract, &cp)
		}
	}
	if len(toExtract) == 0 {
		return docs, nil
	}
	if len(toExtract) > enrichBatchSize {
		toExtract = toExtract[:enrichBatchSize]
	}

	reporter.Event(research.CategoryEvent(research.TypeBatchStart, category, fmt.Sprintf("Extracting %d documents", len(toExtract))))

	batch := flow.NewBatch[[]*research.Document, []*research.Document, *research.Document, *research.Document]().
		WithConcurrency(enrichBatchSize).
		WithSegmenter(func(ctx context.Context, docs []*research.Document) ([]*research.Document, error) {
			return docs, nil
		}).
		WithProcessor(flow.AsProcessor(func(ctx context.Context, doc *research.Document) (*research.Document, error) {
			reporter.Event(research.Event{Type: research.TypeExtracting, Data: research.EventData{Category: category, URL: doc.URL}})
			content, err := e.client.Extract(ctx, doc.URL)
			if err != nil {
				return doc, err
			}
			doc.RawContent = content
			reporter.Event(research.Event{Type: research.TypeExtracted, Data: research.EventData{Category: category, URL: doc.URL}})
			return doc, nil
		})).
		WithAggregator(func(ctx context.Context, results []*research.Document) ([]*research.Document, error) {
			return results, nil
		})

	_, err := batch.Run(ctx, toExtract)
	if err != nil {
		reporter.Log(fmt.Sprintf("enricher: %s: %v", category, err))
	}
	return out, nil
}
