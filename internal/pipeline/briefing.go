package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/researchcore/pipeline/internal/llm"
	"github.com/researchcore/pipeline/internal/research"
	"github.com/researchcore/pipeline/pkg/flow"
)

const (
	maxDocLength        = 8000
	maxAccumulatedChars = 120000
)

var categoryPrompts = map[Category]string{
	CategoryFinancial: "You are analyzing financial information about %s in the %s industry.\nBased on the provided documents, create a concise financial briefing covering key financial metrics, market valuation, funding status, etc. Never provide generic descriptions of GDP trends or broader economic trends. If a metric is $0 or not provided, do not mention it. Use bullet points and lists to make the briefing more readable.",
	CategoryNews:      "You are analyzing recent news about %s in the %s industry.\nBased on the provided documents, create a recent news summary covering major developments, key announcements, partnerships, and public perception. Include dates whenever possible. Use bullet points and lists to make the briefing more readable. Please confine your response to news, do not include general information about the company or its products.",
	CategoryIndustry:  "You are analyzing %s's position in the %s industry.\nBased on the provided documents, create a concise industry briefing covering market position, competitive landscape, trends, and regulatory environment. Don't provide any generic descriptions of the company. Keep industry analysis focused on the sub vertical of the company, avoid general industry trends. Use bullet points and lists to make the briefing more readable.",
	CategoryCompany:   "You are analyzing core information about %s in the %s industry.\nBased on the provided documents, create a concise but detailed company briefing covering offerings, history, business model, leadership team, etc. Start at the highest level, sharply describing what the company does in a few sentences and work your way down to the more specific details. Use bullet points and lists to make the briefing more readable.",
}

// BriefingConfig configures the briefing stage.
type BriefingConfig struct {
	Model            llm.Model
	TokenBudget      int // soft, advisory-only budget in cl100k_base tokens; 0 disables the check
}

// NewBriefingStage builds the briefing stage: for each category, sort
// curated documents by evaluation score, assemble a prompt truncated per
// §4.8's character caps, and produce one briefing via a single LLM call
// per category, run in parallel across categories.
func NewBriefingStage(cfg BriefingConfig) Stage {
	b := &briefing{cfg: cfg}
	return NewStageFunc("briefing", b.run)
}

type briefing struct {
	cfg BriefingConfig
}

type briefingResult struct {
	category Category
	text     string
}

func (b *briefing) run(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error) {
	reporter.Status(research.StatusProcessing, 90, "Generating category briefings", nil, nil)

	categories := []struct {
		cat  Category
		docs map[string]*research.Document
	}{
		{CategoryFinancial, state.CuratedFinancialData},
		{CategoryNews, state.CuratedNewsData},
		{CategoryIndustry, state.CuratedIndustryData},
		{CategoryCompany, state.CuratedCompanyData},
	}

	parallel := flow.NewParallel[int, []briefingResult]().
		WithAggregator(func(ctx context.Context, results []any) ([]briefingResult, error) {
			out := make([]briefingResult, 0, len(results))
			for _, r := range results {
				if r == nil {
					continue
				}
				out = append(out, r.(briefingResult))
			}
			return out, nil
		}).
		WithContinueOnError()

	for _, cat := range categories {
		cat := cat
		parallel.AddProcessors(flow.AsProcessor(func(ctx context.Context, _ int) (any, error) {
			text, err := b.generate(ctx, cat.cat, cat.docs, state, reporter)
			return briefingResult{category: cat.cat, text: text}, err
		}))
	}

	results, err := parallel.Run(ctx, 0)
	if err != nil {
		reporter.Log(fmt.Sprintf("briefing: %v", err))
	}

	delta := research.Delta{Briefings: make(map[string]string, len(results)), Messages: []string{"Briefings generated"}}
	for _, r := range results {
		delta.Briefings[string(r.category)] = r.text
		switch r.category {
		case CategoryFinancial:
			delta.FinancialBriefing = &r.text
		case CategoryNews:
			delta.NewsBriefing = &r.text
		case CategoryIndustry:
			delta.IndustryBriefing = &r.text
		case CategoryCompany:
			delta.CompanyBriefing = &r.text
		}
	}
	return delta, nil
}

func (b *briefing) generate(ctx context.Context, category Category, docs map[string]*research.Document, state *research.State, reporter Reporter) (string, error) {
	reporter.Event(research.CategoryEvent(research.TypeCategoryStart, string(category), fmt.Sprintf("Generating %s briefing", category)))

	if len(docs) == 0 {
		return "", nil
	}

	ordered := make([]*research.Document, 0, len(docs))
	for _, d := range docs {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return evaluationScore(ordered[i]) > evaluationScore(ordered[j])
	})

	var sb strings.Builder
	total := 0
	separator := "\n" + strings.Repeat("-", 40) + "\n"
	for _, doc := range ordered {
		content := doc.Body()
		if len(content) > maxDocLength {
			content = content[:maxDocLength] + "... [content truncated]"
		}
		entry := fmt.Sprintf("Title: %s\n\nContent: %s", doc.Title, content)
		if total+len(entry) >= maxAccumulatedChars {
			break
		}
		sb.WriteString(separator)
		sb.WriteString(entry)
		total += len(entry)
	}
	sb.WriteString(separator)

	b.checkTokenBudget(category, sb.String(), reporter)

	promptTemplate, ok := categoryPrompts[category]
	if !ok {
		promptTemplate = "Create an informative and insightful research briefing on %s in the %s industry based on the provided documents."
	}
	prompt := fmt.Sprintf(promptTemplate, state.Company, state.Industry)
	prompt += "\n\nAnalyze the following documents and extract key information:\n\n" + sb.String()
	prompt += "\nCreate a concise briefing with factual, verifiable information without introductions or conclusions."

	text, err := b.cfg.Model.Complete(ctx, llm.Request{
		Messages:  []llm.Message{llm.User(prompt)},
		MaxTokens: 2048,
	})
	if err != nil {
		return "", err
	}
	reporter.Event(research.CategoryEvent(research.TypeCategoryComplete, string(category), fmt.Sprintf("%s briefing complete", category)))
	return strings.TrimSpace(text), nil
}

func evaluationScore(doc *research.Document) float64 {
	if doc.Evaluation != nil {
		return doc.Evaluation.OverallScore
	}
	return doc.Score
}

// checkTokenBudget logs an advisory warning (never truncates) when text's
// approximate cl100k_base token count exceeds the configured soft
// budget. This is pure observability layered on top of the binding
// character caps above.
func (b *briefing) checkTokenBudget(category Category, text string, reporter Reporter) {
	if b.cfg.TokenBudget <= 0 {
		return
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return
	}
	tokens := len(enc.Encode(text, nil, nil))
	if tokens > b.cfg.TokenBudget {
		msg := fmt.Sprintf("%s briefing context is ~%d tokens, over the configured budget of %d", category, tokens, b.cfg.TokenBudget)
		reporter.Log(msg)
		slog.Warn("briefing token budget exceeded", slog.String("category", string(category)), slog.Int("tokens", tokens), slog.Int("budget", b.cfg.TokenBudget))
	}
}
