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
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "llama-3.1-8b-instant"

	groqSystemPrompt = "Return only valid PostgreSQL SQL without fences."
)

// GroqClient generates SQL through Groq's OpenAI-compatible chat API
type GroqClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGroqClient creates a Groq-backed client. The API key is required.
func NewGroqClient(apiKey, model, baseURL string) (*GroqClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}
	if model == "" {
		model = defaultGroqModel
	}
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
	}

	LogClientInit("groq", model, map[string]string{
		"base_url": baseURL,
		"api_key":  apiKey,
	})

	return &GroqClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

type groqChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqChatRequest struct {
	Model       string            `json:"model"`
	Messages    []groqChatMessage `json:"messages"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
}

type groqChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt to /chat/completions and returns cleaned SQL
func (c *GroqClient) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	reqBody := groqChatRequest{
		Model: c.model,
		Messages: []groqChatMessage{
			{Role: "system", Content: groqSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   512,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	LogRequestTrace("groq", c.model, prompt)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		LogConnectionError("groq", url, err)
		return "", fmt.Errorf("failed to call groq API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	LogResponseTrace("groq", c.model, resp.StatusCode, len(body))

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("groq API returned status %d: %s", resp.StatusCode, string(body))
		LogGeneration("groq", c.model, len(prompt), time.Since(start), 0, err)
		return "", err
	}

	var result groqChatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse groq response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("groq API returned no choices")
	}

	sql := CleanSQL(result.Choices[0].Message.Content)
	LogGeneration("groq", c.model, len(prompt), time.Since(start), len(sql), nil)
	return sql, nil
}

// ProviderName returns "groq"
func (c *GroqClient) ProviderName() string {
	return "groq"
}

// ModelName returns the configured model
func (c *GroqClient) ModelName() string {
	return c.model
}

// IsConfigured reports whether an API key is set
func (c *GroqClient) IsConfigured() bool {
	return c.apiKey != ""
}
