// Command researchd wires the job manager, event bus, and pipeline
// engine into a running process. It exposes no transport of its own
// (HTTP/WS framing is explicitly out of scope, see SPEC_FULL.md §1); it
// owns process lifecycle only, in the start/wait/stop shape of the
// teacher's core/lynx.Lynx.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/researchcore/pipeline/internal/config"
	"github.com/researchcore/pipeline/internal/external/rerank"
	"github.com/researchcore/pipeline/internal/external/search"
	"github.com/researchcore/pipeline/internal/jobs"
	"github.com/researchcore/pipeline/internal/llm"
	llmanthropic "github.com/researchcore/pipeline/internal/llm/anthropic"
	llmgemini "github.com/researchcore/pipeline/internal/llm/gemini"
	llmopenai "github.com/researchcore/pipeline/internal/llm/openai"
	"github.com/researchcore/pipeline/internal/pipeline"
)

func main() {
	cfg := config.Load()

	model, err := resolveModel(cfg)
	if err != nil {
		slog.Error("failed to resolve LLM provider", slog.String("err", err.Error()))
		os.Exit(1)
	}

	searchClient := search.New(cfg.SearchAPIKey, cfg.SearchTimeout, cfg.ExtractTimeout)

	var reranker *rerank.Client
	if cfg.RerankConfigured() {
		reranker = rerank.New(cfg.RerankAPIKey, cfg.LLMTimeout)
	}

	engine := buildEngine(model, searchClient, reranker, cfg)
	manager := jobs.NewManager(cfg, engine)

	start(manager)
	wait()
	stop(manager)
}

func resolveModel(cfg *config.Config) (llm.Model, error) {
	var openaiCtor, anthropicCtor func() llm.Model
	if cfg.OpenAIAPIKey != "" {
		openaiCtor = func() llm.Model { return llmopenai.New(cfg.OpenAIAPIKey, "gpt-4o") }
	}
	if cfg.AnthropicAPIKey != "" {
		anthropicCtor = func() llm.Model { return llmanthropic.New(cfg.AnthropicAPIKey, "claude-3-5-sonnet-latest") }
	}
	factory := llm.NewFactory(
		openaiCtor,
		anthropicCtor,
		func(ctx context.Context) (llm.Model, error) {
			if cfg.GeminiAPIKey == "" {
				return nil, errors.New("gemini: no API key configured")
			}
			return llmgemini.New(ctx, cfg.GeminiAPIKey, "gemini-2.0-flash")
		},
	)
	return factory.Build(context.Background(), llm.Provider(cfg.LLMProvider))
}

func buildEngine(model llm.Model, searchClient *search.Client, reranker *rerank.Client, cfg *config.Config) *pipeline.Engine {
	researchers := []pipeline.Stage{
		pipeline.NewResearcherStage(pipeline.ResearcherConfig{
			Category:     pipeline.CategoryFinancial,
			SystemPrompt: "You are an expert financial analyst researching a company's financial standing.",
			QueryPrompt:  "Generate queries on the financial aspects of the company: funding history and valuation, revenue and financial performance, investors and stakeholders, profitability and financial health.",
			Model:        model,
			Search:       searchClient,
		}),
		pipeline.NewResearcherStage(pipeline.ResearcherConfig{
			Category:     pipeline.CategoryNews,
			SystemPrompt: "You are a news scanner researching recent developments affecting a company.",
			QueryPrompt:  "Generate queries on the most significant recent news about the company: recent press releases and announcements, major partnerships or deals, recent controversies or legal issues, leadership changes.",
			Model:        model,
			Search:       searchClient,
		}),
		pipeline.NewResearcherStage(pipeline.ResearcherConfig{
			Category:     pipeline.CategoryIndustry,
			SystemPrompt: "You are an industry analyst researching a company's competitive landscape.",
			QueryPrompt:  "Generate queries on the company's industry and competitive landscape: market position and share, direct competitors, industry trends affecting the company, regulatory environment.",
			Model:        model,
			Search:       searchClient,
		}),
		pipeline.NewResearcherStage(pipeline.ResearcherConfig{
			Category:     pipeline.CategoryCompany,
			SystemPrompt: "You are a company analyst researching a company's core business.",
			QueryPrompt:  "Generate queries on the company's core business: products and services offered, business model, leadership team, company history and milestones.",
			Model:        model,
			Search:       searchClient,
		}),
	}

	return pipeline.NewEngine(
		pipeline.NewGroundingStage(searchClient),
		researchers,
		pipeline.NewCollectorStage(),
		pipeline.NewCuratorStage(pipeline.CuratorConfig{Threshold: cfg.RerankThreshold, Reranker: reranker}),
		pipeline.NewEnricherStage(searchClient),
		pipeline.NewBriefingStage(pipeline.BriefingConfig{Model: model, TokenBudget: cfg.BriefingTokenBudget}),
		pipeline.NewEditorStage(model),
		pipeline.NewOutputStage(),
	)
}

func start(manager *jobs.Manager) {
	slog.Info("-----------------")
	slog.Info("-------researchd Start--------")
	slog.Info("-----------------")
	_ = manager
}

func wait() {
	slog.Info("-----------------")
	slog.Info("-------researchd Wait--------")
	slog.Info("-----------------")
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan
}

func stop(manager *jobs.Manager) {
	slog.Info("-----------------")
	slog.Info("-------researchd Stop--------")
	slog.Info("-----------------")
	manager.Close()
}
