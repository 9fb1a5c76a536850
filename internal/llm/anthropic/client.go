// Package anthropic wraps the Anthropic Messages API as an llm.Model,
// following the same streamed-chunk-callback shape as
// internal/llm/openai, built on the real anthropic-sdk-go client.
package anthropic

import (
	"strings"

	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/researchcore/pipeline/internal/llm"
)

// Client adapts an Anthropic Messages model to llm.Model.
type Client struct {
	api   anthropic.Client
	model anthropic.Model
}

// New builds a Client for the given API key and model name (for example
// "claude-3-5-sonnet-latest").
func New(apiKey, model string) *Client {
	return &Client{
		api:   anthropic.NewClient(option.WithAPIKey(apiKey)),
		model: anthropic.Model(model),
	}
}

func (c *Client) toParams(req llm.Request) anthropic.MessageNewParams {
	var system string
	msgs := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			system += m.Content + "\n"
		case "assistant":
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: strings.TrimSpace(system)}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	return params
}

// Complete performs a non-streaming completion and returns the
// concatenated text content of the response.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	resp, err := c.api.Messages.New(ctx, c.toParams(req))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// Stream performs a streaming completion, invoking fn for each text delta
// event, and returns the fully concatenated text.
func (c *Client) Stream(ctx context.Context, req llm.Request, fn llm.StreamFunc) (string, error) {
	stream := c.api.Messages.NewStreaming(ctx, c.toParams(req))

	var sb strings.Builder
	for stream.Next() {
		event := stream.Current()
		delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		text := delta.Delta.Text
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
	if err := stream.Err(); err != nil {
		return sb.String(), err
	}
	return sb.String(), nil
}
