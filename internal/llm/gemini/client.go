// Package gemini wraps Google's Gemini API as an llm.Model, using
// "gemini-2.0-flash" as the default model to match the LLM call
// originally used for report compilation (see original_source's editor
// node, which called google.generativeai with that exact model name).
package gemini

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"github.com/researchcore/pipeline/internal/llm"
)

// Client adapts a Gemini generative model to llm.Model.
type Client struct {
	api   *genai.Client
	model string
}

// New builds a Client for the given API key and model name. An empty
// model name defaults to "gemini-2.0-flash".
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	api, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &Client{api: api, model: model}, nil
}

func toContents(req llm.Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	cfg := &genai.GenerateContentConfig{}
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			cfg.SystemInstruction = genai.NewContentFromText(m.Content, genai.RoleUser)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if req.Temperature > 0 {
		t := float32(req.Temperature)
		cfg.Temperature = &t
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	return contents, cfg
}

// Complete performs a non-streaming generation and returns the response
// text.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	contents, cfg := toContents(req)
	resp, err := c.api.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// Stream performs a streaming generation, invoking fn for each chunk of
// text, and returns the fully concatenated text.
func (c *Client) Stream(ctx context.Context, req llm.Request, fn llm.StreamFunc) (string, error) {
	contents, cfg := toContents(req)

	var sb strings.Builder
	for chunk, err := range c.api.Models.GenerateContentStream(ctx, c.model, contents, cfg) {
		if err != nil {
			return sb.String(), err
		}
		text := chunk.Text()
		if text == "" {
			continue
		}
		sb.WriteString(text)
		if fn != nil {
			if err := fn(ctx, llm.Chunk{Text: text}); err != nil {
				return sb.String(), err
			}
		}
	}
	return sb.String(), nil
}
