/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "sqlcoder"
)

// OllamaClient generates SQL through a local Ollama server
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaClient creates a client for the given Ollama server. Empty
// arguments fall back to localhost and the sqlcoder model.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}

	LogClientInit("ollama", model, map[string]string{"base_url": baseURL})

	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// Generate sends the prompt to /api/generate and returns cleaned SQL
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	reqBody := ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/api/generate"
	LogRequestTrace("ollama", c.model, prompt)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		LogConnectionError("ollama", url, err)
		return "", fmt.Errorf("failed to call ollama API (is ollama running at %s?): %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	LogResponseTrace("ollama", c.model, resp.StatusCode, len(body))

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("ollama API returned status %d: %s", resp.StatusCode, string(body))
		LogGeneration("ollama", c.model, len(prompt), time.Since(start), 0, err)
		return "", err
	}

	var result ollamaGenerateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse ollama response: %w", err)
	}

	sql := CleanSQL(result.Response)
	LogGeneration("ollama", c.model, len(prompt), time.Since(start), len(sql), nil)
	return sql, nil
}

// ProviderName returns "ollama"
func (c *OllamaClient) ProviderName() string {
	return "ollama"
}

// ModelName returns the configured model
func (c *OllamaClient) ModelName() string {
	return c.model
}

// IsConfigured reports true; a local server needs no credentials
func (c *OllamaClient) IsConfigured() bool {
	return c.baseURL != ""
}
