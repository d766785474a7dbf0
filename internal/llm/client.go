/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package llm provides SQL generation clients for local and hosted model
// backends. The backend is selected once when the client is built; there
// is no per-request fallback between providers.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client generates SQL text from a fully composed prompt. Implementations
// return post-processed SQL with markdown fences already stripped.
type Client interface {
	// Generate produces SQL for the given prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// ProviderName returns the backend identifier ("ollama", "groq",
	// "huggingface")
	ProviderName() string

	// ModelName returns the configured model
	ModelName() string

	// IsConfigured reports whether the client has the credentials and
	// endpoints it needs to serve requests
	IsConfigured() bool
}

// Config selects and parameterizes a generation backend
type Config struct {
	// Provider selects the backend: "ollama" (default), "groq" or
	// "huggingface"
	Provider string

	// Model overrides the backend's default model
	Model string

	// OllamaURL is the base URL of a local Ollama server
	OllamaURL string

	// GroqAPIKey authenticates against the Groq API
	GroqAPIKey string

	// GroqBaseURL overrides the Groq endpoint, mainly for tests
	GroqBaseURL string

	// HFAPIKey authenticates against the Hugging Face Inference API
	HFAPIKey string

	// HFBaseURL overrides the Hugging Face endpoint, mainly for tests
	HFBaseURL string
}

// NewClient builds the generation client for the configured provider. An
// unknown provider is an error, not a silent default.
func NewClient(cfg Config) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "ollama"
	}

	switch provider {
	case "ollama":
		return NewOllamaClient(cfg.OllamaURL, cfg.Model), nil
	case "groq":
		return NewGroqClient(cfg.GroqAPIKey, cfg.Model, cfg.GroqBaseURL)
	case "huggingface", "hf":
		return NewHuggingFaceClient(cfg.HFAPIKey, cfg.Model, cfg.HFBaseURL)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s (supported: ollama, groq, huggingface)", provider)
	}
}
