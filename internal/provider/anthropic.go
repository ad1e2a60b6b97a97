package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/valpere/lingodoc/internal/config"
	"github.com/valpere/lingodoc/internal/postprocess"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient speaks the Anthropic messages API.
type AnthropicClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

// NewAnthropic builds the Anthropic messages client.
func NewAnthropic(cfg config.Settings) Client {
	ps := cfg.Provider("anthropic")
	baseURL := ps.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}
	model := ps.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &AnthropicClient{
		apiKey:      ps.APIKey,
		baseURL:     baseURL,
		model:       model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

func (c *AnthropicClient) Name() string {
	return "anthropic"
}

func (c *AnthropicClient) Generate(ctx context.Context, prompt, system string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("anthropic: %w", ErrCredentialMissing)
	}

	reqBody := map[string]interface{}{
		"model":       c.model,
		"max_tokens":  4096,
		"temperature": c.temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	if system != "" {
		reqBody["system"] = system
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &Error{Provider: "anthropic", Status: resp.StatusCode, Body: string(errBody)}
	}

	var anthropicResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&anthropicResp); err != nil {
		return "", fmt.Errorf("failed to decode anthropic response: %w", err)
	}

	for _, block := range anthropicResp.Content {
		if block.Type == "text" {
			return postprocess.Clean(block.Text), nil
		}
	}
	return "", fmt.Errorf("empty response from anthropic")
}
