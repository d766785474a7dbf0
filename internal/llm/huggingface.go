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
	defaultHFBaseURL = "https://api-inference.huggingface.co"
	defaultHFModel   = "google/gemma-2-2b-it"
)

// HuggingFaceClient generates SQL through the Hugging Face Inference API.
// Cold models are waited for rather than erroring, which is why this
// backend carries a longer timeout than the others.
type HuggingFaceClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewHuggingFaceClient creates a Hugging Face backed client. The API key
// is required.
func NewHuggingFaceClient(apiKey, model, baseURL string) (*HuggingFaceClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("hugging face API key is required")
	}
	if model == "" {
		model = defaultHFModel
	}
	if baseURL == "" {
		baseURL = defaultHFBaseURL
	}

	LogClientInit("huggingface", model, map[string]string{
		"base_url": baseURL,
		"api_key":  apiKey,
	})

	return &HuggingFaceClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 180 * time.Second,
		},
	}, nil
}

type hfGenerateRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		Temperature  float64 `json:"temperature"`
		MaxNewTokens int     `json:"max_new_tokens"`
	} `json:"parameters"`
	Options struct {
		WaitForModel bool `json:"wait_for_model"`
	} `json:"options"`
}

// Generate sends the prompt to the model's inference endpoint and returns
// cleaned SQL
func (c *HuggingFaceClient) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	var reqBody hfGenerateRequest
	reqBody.Inputs = prompt
	reqBody.Parameters.Temperature = 0.2
	reqBody.Parameters.MaxNewTokens = 512
	reqBody.Options.WaitForModel = true

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/models/" + c.model
	LogRequestTrace("huggingface", c.model, prompt)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		LogConnectionError("huggingface", url, err)
		return "", fmt.Errorf("failed to call hugging face API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	LogResponseTrace("huggingface", c.model, resp.StatusCode, len(body))

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("hugging face API returned status %d: %s", resp.StatusCode, string(body))
		LogGeneration("huggingface", c.model, len(prompt), time.Since(start), 0, err)
		return "", err
	}

	text, err := parseHFPayload(body)
	if err != nil {
		LogGeneration("huggingface", c.model, len(prompt), time.Since(start), 0, err)
		return "", err
	}

	sql := CleanSQL(text)
	LogGeneration("huggingface", c.model, len(prompt), time.Since(start), len(sql), nil)
	return sql, nil
}

// parseHFPayload extracts generated text from the two response shapes the
// inference API produces: a list of objects with generated_text (or
// summary_text), or a single object with generated_text. Any other shape
// is an error; guessing at unknown payloads would feed garbage to the
// execution gate downstream.
func parseHFPayload(body []byte) (string, error) {
	type hfGenerated struct {
		GeneratedText string `json:"generated_text"`
		SummaryText   string `json:"summary_text"`
	}

	var list []hfGenerated
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return "", fmt.Errorf("hugging face API returned an empty result list")
		}
		if list[0].GeneratedText != "" {
			return list[0].GeneratedText, nil
		}
		if list[0].SummaryText != "" {
			return list[0].SummaryText, nil
		}
		return "", fmt.Errorf("hugging face API returned a result with no generated text")
	}

	var single hfGenerated
	if err := json.Unmarshal(body, &single); err == nil && single.GeneratedText != "" {
		return single.GeneratedText, nil
	}

	return "", fmt.Errorf("unrecognized hugging face response payload: %s", truncate(string(body), 200))
}

// ProviderName returns "huggingface"
func (c *HuggingFaceClient) ProviderName() string {
	return "huggingface"
}

// ModelName returns the configured model
func (c *HuggingFaceClient) ModelName() string {
	return c.model
}

// IsConfigured reports whether an API key is set
func (c *HuggingFaceClient) IsConfigured() bool {
	return c.apiKey != ""
}
