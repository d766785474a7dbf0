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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	// OllamaHTTPTimeout is the HTTP client timeout for Ollama API requests.
	// Ollama might need time to load models, so this is longer than other providers
	OllamaHTTPTimeout = 60 * time.Second
)

// OllamaProvider implements embedding generation using a local Ollama instance
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// ollamaEmbeddingRequest represents a request to Ollama's embeddings API
type ollamaEmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// ollamaEmbeddingResponse represents a response from Ollama's embeddings API
// Note: Ollama returns an array of embeddings (one per input text)
type ollamaEmbeddingResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Model dimensions for Ollama embedding models
var ollamaModelDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
	"all-minilm:latest": 384,
	"all-minilm:l6-v2":  384,
}

// Mutex to protect concurrent access to ollamaModelDimensions
var ollamaModelDimensionsMu sync.RWMutex

// NewOllamaProvider creates a new Ollama embedding provider
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	if model == "" {
		model = "all-minilm"
	}

	// For unknown models, dimensions are discovered on first use so newly
	// released Ollama models keep working

	LogProviderInit("ollama", model, map[string]string{
		"base_url": baseURL,
	})

	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: OllamaHTTPTimeout,
		},
	}, nil
}

// Embed generates a unit-normalized embedding vector for the given text
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	startTime := time.Now()
	textLen := len(text)

	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	url := p.baseURL + "/api/embed"
	LogAPICallDetails("ollama", p.model, url, textLen)
	LogRequestTrace("ollama", p.model, text)

	reqBody := ollamaEmbeddingRequest{
		Model: p.model,
		Input: text,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		LogConnectionError("ollama", url, err)
		LogAPICall("ollama", p.model, textLen, time.Since(startTime), 0, err)
		return nil, fmt.Errorf("failed to connect to Ollama at %s: %w (is Ollama running?)", p.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			err := fmt.Errorf("Ollama API request failed with status %d (error reading response body: %w)", resp.StatusCode, readErr)
			LogAPICall("ollama", p.model, textLen, time.Since(startTime), 0, err)
			return nil, err
		}

		err := fmt.Errorf("Ollama API request failed with status %d: %s", resp.StatusCode, string(body))
		LogAPICall("ollama", p.model, textLen, time.Since(startTime), 0, err)
		return nil, err
	}

	var embResp ollamaEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		LogAPICall("ollama", p.model, textLen, time.Since(startTime), 0, err)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embResp.Embeddings) == 0 || len(embResp.Embeddings[0]) == 0 {
		err := fmt.Errorf("received empty embedding from Ollama (model may not be installed: try 'ollama pull %s')", p.model)
		LogAPICall("ollama", p.model, textLen, time.Since(startTime), 0, err)
		return nil, err
	}

	// We only sent one input text, so take the first embedding
	vector := Normalize(embResp.Embeddings[0])

	// Remember dimensions for models we had not seen before
	ollamaModelDimensionsMu.Lock()
	if _, ok := ollamaModelDimensions[p.model]; !ok {
		ollamaModelDimensions[p.model] = len(vector)
	}
	ollamaModelDimensionsMu.Unlock()

	LogResponseTrace("ollama", p.model, resp.StatusCode, len(vector))
	LogAPICall("ollama", p.model, textLen, time.Since(startTime), len(vector), nil)

	return vector, nil
}

// Dimensions returns the number of dimensions for this model
func (p *OllamaProvider) Dimensions() int {
	ollamaModelDimensionsMu.RLock()
	defer ollamaModelDimensionsMu.RUnlock()
	if dims, ok := ollamaModelDimensions[p.model]; ok {
		return dims
	}
	// Unknown until the first Embed() call
	return 0
}

// ModelName returns the model name
func (p *OllamaProvider) ModelName() string {
	return p.model
}

// ProviderName returns "ollama"
func (p *OllamaProvider) ProviderName() string {
	return "ollama"
}
