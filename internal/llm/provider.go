package llm

import (
	"context"
	"fmt"
)

// Provider names a supported chat-completion backend, set by
// configuration and resolved once at startup.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// Factory builds the configured Model. It is defined here, rather than
// importing the concrete provider packages directly, so callers supply
// constructors and this package stays free of the provider SDKs.
type Factory struct {
	openai    func() Model
	anthropic func() Model
	gemini    func(ctx context.Context) (Model, error)
}

// NewFactory registers lazy constructors for each provider. A nil
// constructor means that provider is not configured (no API key).
func NewFactory(openai, anthropic func() Model, gemini func(ctx context.Context) (Model, error)) *Factory {
	return &Factory{openai: openai, anthropic: anthropic, gemini: gemini}
}

// Build resolves the configured provider to a concrete Model.
func (f *Factory) Build(ctx context.Context, provider Provider) (Model, error) {
	switch provider {
	case ProviderOpenAI:
		if f.openai == nil {
			return nil, fmt.Errorf("llm: provider %q not configured", provider)
		}
		return f.openai(), nil
	case ProviderAnthropic:
		if f.anthropic == nil {
			return nil, fmt.Errorf("llm: provider %q not configured", provider)
		}
		return f.anthropic(), nil
	case ProviderGemini:
		if f.gemini == nil {
			return nil, fmt.Errorf("llm: provider %q not configured", provider)
		}
		return f.gemini(ctx)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", provider)
	}
}
