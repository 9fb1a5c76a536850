// Package llm defines a provider-agnostic chat-completion capability,
// grounded on the teacher's generic Model[Req, Res] contract
// (ai/core/model/model.go), specialized here to the single request/
// response shape the pipeline stages need instead of the teacher's full
// generic prompt/options/metadata machinery.
package llm

import "context"

// Message is one turn of a chat exchange.
type Message struct {
	Role    string // "system", "user", or "assistant"
	Content string
}

// Request is a chat-completion request against any provider.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Chunk is one piece of a streamed completion.
type Chunk struct {
	Text string
}

// StreamFunc receives each chunk as it arrives. Returning an error aborts
// the stream.
type StreamFunc func(ctx context.Context, chunk Chunk) error

// Model is satisfied by every provider client in this module (OpenAI,
// Anthropic, Gemini). Complete blocks for the whole response; Stream
// invokes fn incrementally and also returns the fully aggregated text.
type Model interface {
	Complete(ctx context.Context, req Request) (string, error)
	Stream(ctx context.Context, req Request, fn StreamFunc) (string, error)
}

// System is a convenience constructor for a system message.
func System(content string) Message { return Message{Role: "system", Content: content} }

// User is a convenience constructor for a user message.
func User(content string) Message { return Message{Role: "user", Content: content} }
