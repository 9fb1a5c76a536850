// Package openai wraps the OpenAI chat-completions API as an llm.Model,
// grounded on the stream.Recv loop in
// Tangerg-lynx/ai/providers/openai/chat/model.go (chunk accumulation plus
// a caller-supplied per-chunk callback) but built directly on the real
// openai-go SDK rather than the teacher's internal request/response
// wrapper types.
package openai

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/researchcore/pipeline/internal/llm"
)

// Client adapts an OpenAI chat model to llm.Model.
type Client struct {
	api   openai.Client
	model openai.ChatModel
}

// New builds a Client for the given API key and model name (for example
// "gpt-4o").
func New(apiKey, model string) *Client {
	return &Client{
		api:   openai.NewClient(option.WithAPIKey(apiKey)),
		model: openai.ChatModel(model),
	}
}

func toParams(c *Client, req llm.Request) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	return params
}

// Complete performs a non-streaming chat completion and returns the first
// choice's text.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, toParams(c, req))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream performs a streaming chat completion, invoking fn with each
// delta chunk as it arrives, and returns the fully concatenated text.
func (c *Client) Stream(ctx context.Context, req llm.Request, fn llm.StreamFunc) (string, error) {
	stream := c.api.Chat.Completions.NewStreaming(ctx, toParams(c, req))
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if fn != nil {
			if err := fn(ctx, llm.Chunk{Text: delta}); err != nil {
				return sb.String(), err
			}
		}
	}
	if err := stream.Err(); err != nil && !errors.Is(err, io.EOF) {
		return sb.String(), err
	}
	return sb.String(), nil
}
