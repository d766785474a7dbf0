/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package embedding

import (
	"context"
	"fmt"
	"math"
)

// Provider defines the interface for embedding generation. Implementations
// return unit-length vectors, so cosine similarity between two embeddings
// reduces to their dot product.
type Provider interface {
	// Embed generates a unit-normalized embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimensions returns the number of dimensions in the embedding vector
	Dimensions() int

	// ModelName returns the name of the model being used
	ModelName() string

	// ProviderName returns the name of the provider (e.g., "ollama", "openai")
	ProviderName() string
}

// Config holds configuration for embedding providers
type Config struct {
	Provider string // "ollama" or "openai"
	Model    string // Model name (provider-specific)

	// Ollama-specific
	OllamaURL string

	// OpenAI-specific
	OpenAIAPIKey string
}

// NewProvider creates a new embedding provider based on configuration
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "ollama", "":
		if cfg.OllamaURL == "" {
			cfg.OllamaURL = "http://localhost:11434"
		}
		if cfg.Model == "" {
			// all-minilm matches the 384-dimension MiniLM family the schema
			// index was designed around
			cfg.Model = "all-minilm"
		}
		return NewOllamaProvider(cfg.OllamaURL, cfg.Model)

	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required when provider is 'openai'")
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.Model)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: ollama, openai)", cfg.Provider)
	}
}

// Normalize scales a vector to unit length in place and returns it. A zero
// vector is returned unchanged since it has no direction to preserve.
func Normalize(vec []float64) []float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
