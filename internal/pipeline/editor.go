package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/researchcore/pipeline/internal/errs"
	"github.com/researchcore/pipeline/internal/llm"
	"github.com/researchcore/pipeline/internal/research"
)

// NewEditorStage builds the editor stage: two streamed LLM passes
// (compile the category briefings into one narrative, then dedup and
// polish the markdown), followed by a non-negotiable "## References"
// section built directly from state - the references section is never
// subject to the polish pass, so link integrity cannot be altered by the
// model.
func NewEditorStage(model llm.Model) Stage {
	e := &editor{model: model}
	return NewStageFunc("editor", e.run)
}

type editor struct {
	model llm.Model
}

func (e *editor) run(ctx context.Context, state *research.State, reporter Reporter) (research.Delta, error) {
	reporter.Status(research.StatusProcessing, 95, fmt.Sprintf("Compiling final report for %s", state.Company), nil, nil)

	briefings := map[string]string{
		"company":   state.CompanyBriefing,
		"industry":  state.IndustryBriefing,
		"financial": state.FinancialBriefing,
		"news":      state.NewsBriefing,
	}
	var present []string
	for _, k := range []string{"company", "industry", "financial", "news"} {
		if strings.TrimSpace(briefings[k]) != "" {
			present = append(present, k)
		}
	}
	if len(present) == 0 {
		return research.Delta{}, errs.New(errs.ContentEmpty, "no briefing sections available to compile")
	}

	initial, err := e.compile(ctx, state.Company, briefings, present, reporter)
	if err != nil {
		return research.Delta{}, errs.Wrap(errs.ExternalUnavailable, "initial report compilation failed", err)
	}
	if strings.TrimSpace(initial) == "" {
		return research.Delta{}, errs.New(errs.ContentEmpty, "initial compilation produced an empty report")
	}

	polished, err := e.polish(ctx, state.Company, initial, reporter)
	if err != nil {
		return research.Delta{}, errs.Wrap(errs.ExternalUnavailable, "polish pass failed", err)
	}
	if strings.TrimSpace(polished) == "" {
		return research.Delta{}, errs.New(errs.ContentEmpty, "polish pass produced an empty report")
	}

	var sb strings.Builder
	sb.WriteString(polished)
	if len(state.References) > 0 {
		sb.WriteString("\n\n## References\n---\n")
		for i, ref := range state.References {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(fmt.Sprintf("* [%s](%s)", ref, ref))
		}
	}

	report := sb.String()
	return research.Delta{
		Report:   &report,
		Messages: []string{fmt.Sprintf("Final report compiled with %d characters", len(report))},
	}, nil
}

func (e *editor) compile(ctx context.Context, company string, briefings map[string]string, present []string, reporter Reporter) (string, error) {
	var combined strings.Builder
	for i, key := range present {
		if i > 0 {
			combined.WriteString("\n\n")
		}
		combined.WriteString(fmt.Sprintf("## %s\n%s", strings.Title(key), briefings[key]))
	}

	prompt := fmt.Sprintf(`You are compiling a comprehensive research report about %s.

Original section content:
%s

Create a comprehensive report on %s that:
1. Integrates information from all sections into a cohesive narrative
2. Maintains the most important details from each section
3. Organizes information logically within each section and removes any transitional commentary / explanations
4. Uses clear section headers and structure
5. Preserves all factual information
6. Focuses on %s

Return the compiled report in perfectly formatted markdown. Do not include any explanatory text.`, company, combined.String(), company, company)

	return e.model.Stream(ctx, llm.Request{Messages: []llm.Message{llm.User(prompt)}, MaxTokens: 8192}, func(ctx context.Context, chunk llm.Chunk) error {
		reporter.Event(research.Event{Type: research.TypeReportChunk, Data: research.EventData{Chunk: chunk.Text}})
		return nil
	})
}

func (e *editor) polish(ctx context.Context, company, content string, reporter Reporter) (string, error) {
	prompt := fmt.Sprintf(`You are an expert markdown editor. You are given a report on %s.

Current report:
%s

Create a refined version that follows these EXACT markdown formatting rules:
1. Main title should use a single # (e.g. "# Company Research Report")
2. All section headers should use ## without any horizontal rules
3. All subsections should use ###
4. Use * consistently for all bullet points (never use bullets or dashes)
5. Add a blank line before and after each section and subsection header
6. Ensure consistent indentation for bullet points
7. Use bold (**text**) for emphasis, not italics
8. Keep one blank line between bullet points for readability

Additionally:
1. Remove any redundant information
2. Improve flow and readability
3. Remove sections lacking substantial content
4. Remove transitional commentary / explanations that an LLM might have added
5. Ensure perfect markdown syntax

Return the polished report in flawless markdown format. Provide no explanations or commentary.`, company, content)

	return e.model.Stream(ctx, llm.Request{Messages: []llm.Message{llm.User(prompt)}, MaxTokens: 8192}, func(ctx context.Context, chunk llm.Chunk) error {
		reporter.Event(research.Event{Type: research.TypeReportChunk, Data: research.EventData{Chunk: chunk.Text}})
		return nil
	})
}
