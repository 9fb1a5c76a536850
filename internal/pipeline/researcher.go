package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/researchcore/pipeline/internal/errs"
	"github.com/researchcore/pipeline/internal/external/search"
	"github.com/researchcore/pipeline/internal/llm"
	"github.com/researchcore/pipeline/internal/research"
	xsync "github.com/researchcore/pipeline/pkg/sync"
)

// Category names the four research tracks, matching the four node names
// in the original graph: financial_analyst, news_scanner,
// industry_analyst, company_analyst.
type Category string

const (
	CategoryFinancial Category = "financial_analyst"
	CategoryNews      Category = "news_scanner"
	CategoryIndustry  Category = "industry_analyst"
	CategoryCompany   Category = "company_analyst"
)

// ResearcherConfig parameterizes one of the four identical researcher
// procedures: generate up to four queries with a streamed LLM call,
// search them in batches of four behind a semaphore of four, and
// assemble the category's document map (first write wins on a
// canonicalized-URL collision).
type ResearcherConfig struct {
	Category     Category
	SystemPrompt string
	QueryPrompt  string
	Model        llm.Model
	Search       *search.Client
	MaxQueries   int
	SearchBatch  int
}

const defaultMaxQueries = 4
const defaultSearchBatch = 4
const maxResultsPerQuery = 15

// NewResearcherStage builds the Stage for one category.
func NewResearcherStage(cfg ResearcherConfig) Stage {
	if cfg.MaxQueries <= 0 {
		cfg.MaxQueries = defaultMaxQueries
	}
	if cfg.SearchBatch <= 0 {
		cfg.SearchBatch = defaultSearchBatch
	}
	r := &researcher{cfg: cfg}
	return NewStageFunc(string(cfg.Category), r.run)
}

type researcher struct {
	cfg ResearcherConfig
}

func (r *researcher) run(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error) {
	category := r.cfg.Category
	reporter.Event(research.CategoryEvent(research.TypeCategoryStart, string(category), fmt.Sprintf("Starting %s research", category)))

	queries, err := r.generateQueries(ctx, state, reporter)
	if err != nil {
		return r.emptyCategoryResult(category, err, reporter)
	}
	if len(queries) == 0 {
		return r.emptyCategoryResult(category, errs.New(errs.ContentEmpty, fmt.Sprintf("%s: no queries generated", category)), reporter)
	}

	docs := r.searchAll(ctx, queries, reporter)
	if state.CompanyURL != "" && category == CategoryCompany && state.SiteScrape != nil {
		canon, err := research.CanonicalizeURL(state.CompanyURL)
		if err == nil {
			if _, exists := docs[canon]; !exists {
				docs[canon] = &research.Document{
					URL:     canon,
					Title:   state.SiteScrape.Title,
					Content: state.SiteScrape.RawContent,
					Query:   "company homepage",
					Source:  research.SourceCompanyWebsite,
				}
			}
		}
	}

	delta := research.Delta{
		Messages: []string{fmt.Sprintf("%s completed with %d documents", category, len(docs))},
	}
	switch category {
	case CategoryFinancial:
		delta.FinancialData = docs
	case CategoryNews:
		delta.NewsData = docs
	case CategoryIndustry:
		delta.IndustryData = docs
	case CategoryCompany:
		delta.CompanyData = docs
	}

	reporter.Event(research.CategoryEvent(research.TypeCategoryComplete, string(category), fmt.Sprintf("%s research complete", category)))
	return delta, nil
}

// emptyCategoryResult handles a query-generation failure for this category:
// it emits an error event and reports an empty category map rather than
// failing the stage, so one category's failure never aborts the run.
func (r *researcher) emptyCategoryResult(category Category, cause error, reporter Reporter) (research.Delta, error) {
	reporter.Event(research.Event{
		Type: research.TypeError,
		Data: research.EventData{Category: string(category), Message: fmt.Sprintf("%s: query generation failed", category), Error: cause.Error()},
	})
	reporter.Log(fmt.Sprintf("%s: query generation failed, continuing with no documents: %v", category, cause))

	delta := research.Delta{
		Messages: []string{fmt.Sprintf("%s completed with 0 documents", category)},
	}
	empty := map[string]*research.Document{}
	switch category {
	case CategoryFinancial:
		delta.FinancialData = empty
	case CategoryNews:
		delta.NewsData = empty
	case CategoryIndustry:
		delta.IndustryData = empty
	case CategoryCompany:
		delta.CompanyData = empty
	}
	reporter.Event(research.CategoryEvent(research.TypeCategoryComplete, string(category), fmt.Sprintf("%s research complete", category)))
	return delta, nil
}

// generateQueries streams a chat completion, splitting on newlines into
// up to cfg.MaxQueries queries, emitting a query_generating event for
// every received chunk and a query_generated event each time a newline
// completes a query - mirroring the incremental-typing behavior of the
// original researcher's streamed query generation.
func (r *researcher) generateQueries(ctx context.Context, state *research.State, reporter Reporter) ([]string, error) {
	reporter.Event(research.CategoryEvent(research.TypeQueryGenerating, string(r.cfg.Category), "Generating research queries"))

	req := llm.Request{
		Messages: []llm.Message{
			llm.System(fmt.Sprintf("You are researching %s, a company in the %s industry.", state.Company, state.Industry)),
			llm.User(r.formatQueryPrompt(state)),
		},
		Temperature: 0,
		MaxTokens:   1024,
	}

	var (
		queries []string
		current strings.Builder
	)
	_, err := r.cfg.Model.Stream(ctx, req, func(ctx context.Context, chunk llm.Chunk) error {
		current.WriteString(chunk.Text)
		reporter.Event(research.Event{
			Type: research.TypeQueryGenerating,
			Data: research.EventData{Category: string(r.cfg.Category), Query: current.String()},
		})

		text := current.String()
		if !strings.Contains(text, "\n") {
			return nil
		}
		parts := strings.Split(text, "\n")
		current.Reset()
		current.WriteString(parts[len(parts)-1])
		for _, part := range parts[:len(parts)-1] {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			queries = append(queries, part)
			reporter.Event(research.Event{
				Type: research.TypeQueryGenerated,
				Data: research.EventData{Category: string(r.cfg.Category), Query: part},
			})
			if len(queries) >= r.cfg.MaxQueries {
				return errStopStreaming
			}
		}
		return nil
	})
	if err != nil && err != errStopStreaming {
		return nil, errs.Wrap(errs.ExternalUnavailable, "query generation failed", err)
	}

	if tail := strings.TrimSpace(current.String()); tail != "" && len(queries) < r.cfg.MaxQueries {
		queries = append(queries, tail)
		reporter.Event(research.Event{
			Type: research.TypeQueryGenerated,
			Data: research.EventData{Category: string(r.cfg.Category), Query: tail},
		})
	}

	if len(queries) > r.cfg.MaxQueries {
		queries = queries[:r.cfg.MaxQueries]
	}
	return queries, nil
}

// errStopStreaming is returned by the StreamFunc callback to cut a
// stream short once enough queries have been parsed; it is not a real
// failure and is swallowed by the caller.
var errStopStreaming = fmt.Errorf("pipeline: enough queries parsed")

func (r *researcher) formatQueryPrompt(state *research.State) string {
	return fmt.Sprintf(`%s

Important Guidelines:
- Focus ONLY on %s-specific information
- Make queries very brief and to the point
- Provide exactly %d search queries (one per line), with no hyphens or dashes
- DO NOT make assumptions about the industry - use only the provided industry information`,
		r.cfg.QueryPrompt, state.Company, r.cfg.MaxQueries)
}

// searchAll runs queries in sequential batches of cfg.SearchBatch,
// bounding concurrent searches within a batch to 4 in flight via a
// semaphore - this is the module's closest one-to-one grounding on the
// teacher's own xsync.Limiter.
func (r *researcher) searchAll(ctx context.Context, queries []string, reporter Reporter) map[string]*research.Document {
	docs := make(map[string]*research.Document)
	limiter := xsync.NewLimiter(r.cfg.SearchBatch)

	for start := 0; start < len(queries); start += r.cfg.SearchBatch {
		end := start + r.cfg.SearchBatch
		if end > len(queries) {
			end = len(queries)
		}
		batch := queries[start:end]

		type result struct {
			query   string
			results []search.Result
			err     error
		}
		resultsCh := make(chan result, len(batch))

		launched := 0
		for _, q := range batch {
			q := q
			if err := limiter.AcquireContext(ctx); err != nil {
				reporter.Log(fmt.Sprintf("%s: search %q skipped: %v", r.cfg.Category, q, err))
				continue
			}
			launched++
			go func() {
				defer limiter.Release()
				reporter.Event(research.Event{Type: research.TypeQuerySearching, Data: research.EventData{Category: string(r.cfg.Category), Query: q}})
				res, err := r.cfg.Search.Search(ctx, q, maxResultsPerQuery)
				resultsCh <- result{query: q, results: res, err: err}
			}()
		}

		for i := 0; i < launched; i++ {
			res := <-resultsCh
			if res.err != nil {
				reporter.Log(fmt.Sprintf("%s: search %q failed: %v", r.cfg.Category, res.query, res.err))
				continue
			}
			reporter.Event(research.Event{Type: research.TypeQuerySearched, Data: research.EventData{Category: string(r.cfg.Category), Query: res.query}})
			for _, item := range res.results {
				if item.Content == "" || item.URL == "" {
					continue
				}
				canon, err := research.CanonicalizeURL(item.URL)
				if err != nil {
					continue
				}
				if _, exists := docs[canon]; exists {
					continue
				}
				docs[canon] = &research.Document{
					URL:     canon,
					Title:   item.Title,
					Content: item.Content,
					Query:   res.query,
					Source:  research.SourceWebSearch,
					Score:   item.Score,
				}
			}
		}
	}

	return docs
}
