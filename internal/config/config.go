// Package config loads the module's environment-driven configuration.
// Every option named in the external-interfaces environment table has a
// field here; nothing is read from the environment anywhere else in the
// module.
package config

import (
	"os"
	"time"

	"github.com/spf13/cast"
)

// Config holds every environment-configurable option the pipeline and
// job manager read at startup.
type Config struct {
	// External service credentials.
	SearchAPIKey     string
	ExtractAPIKey    string
	RerankAPIKey     string
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	GeminiAPIKey     string
	LLMProvider      string // "openai" | "anthropic" | "gemini"
	PersistenceURI   string // optional; write-through only, never read hot-path

	// Overload and retention policy.
	MaxConcurrentJobs int
	MaxQueuedJobs     int
	JobRetention      time.Duration
	RetentionSweep    time.Duration

	// Per-call timeouts (§5 suggested defaults).
	SearchTimeout time.Duration
	ExtractTimeout time.Duration
	LLMTimeout    time.Duration

	// Curation tuning.
	RerankThreshold float64

	// Briefing tuning.
	BriefingTokenBudget int
}

// Default returns the configuration the module ships with when no
// environment variable overrides a given option.
func Default() *Config {
	return &Config{
		LLMProvider:         "openai",
		MaxConcurrentJobs:   8,
		MaxQueuedJobs:       32,
		JobRetention:        30 * time.Minute,
		RetentionSweep:      1 * time.Minute,
		SearchTimeout:       30 * time.Second,
		ExtractTimeout:      60 * time.Second,
		LLMTimeout:          120 * time.Second,
		RerankThreshold:     0.4,
		BriefingTokenBudget: 30000,
	}
}

// Load reads Config fields from the process environment, falling back to
// Default() for anything unset or unparsable.
func Load() *Config {
	c := Default()

	c.SearchAPIKey = os.Getenv("SEARCH_API_KEY")
	c.ExtractAPIKey = os.Getenv("EXTRACT_API_KEY")
	c.RerankAPIKey = os.Getenv("RERANK_API_KEY")
	c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	c.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	c.PersistenceURI = os.Getenv("PERSISTENCE_URI")

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLMProvider = v
	}
	if v, ok := lookupInt("MAX_CONCURRENT_JOBS"); ok {
		c.MaxConcurrentJobs = v
	}
	if v, ok := lookupInt("MAX_QUEUED_JOBS"); ok {
		c.MaxQueuedJobs = v
	}
	if v, ok := lookupDuration("JOB_RETENTION"); ok {
		c.JobRetention = v
	}
	if v, ok := lookupDuration("RETENTION_SWEEP_INTERVAL"); ok {
		c.RetentionSweep = v
	}
	if v, ok := lookupDuration("SEARCH_TIMEOUT"); ok {
		c.SearchTimeout = v
	}
	if v, ok := lookupDuration("EXTRACT_TIMEOUT"); ok {
		c.ExtractTimeout = v
	}
	if v, ok := lookupDuration("LLM_TIMEOUT"); ok {
		c.LLMTimeout = v
	}
	if v, ok := lookupFloat("RERANK_THRESHOLD"); ok {
		c.RerankThreshold = v
	}
	if v, ok := lookupInt("BRIEFING_TOKEN_BUDGET"); ok {
		c.BriefingTokenBudget = v
	}

	return c
}

// RerankConfigured reports whether an optional reranker is available; the
// curator falls back to upstream scores alone when it is not.
func (c *Config) RerankConfigured() bool {
	return c.RerankAPIKey != ""
}

// PersistenceConfigured reports whether jobs/reports should be mirrored
// to a document store (a collaborator concern; the core only checks
// whether the write-through path is enabled).
func (c *Config) PersistenceConfigured() bool {
	return c.PersistenceURI != ""
}

func lookupInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func lookupFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func lookupDuration(key string) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := cast.ToDurationE(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
