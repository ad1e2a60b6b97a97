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

// CohereClient speaks the Cohere chat API.
type CohereClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

// NewCohere builds the Cohere chat client.
func NewCohere(cfg config.Settings) Client {
	ps := cfg.Provider("cohere")
	baseURL := ps.BaseURL
	if baseURL == "" {
		baseURL = "https://api.cohere.com/v1"
	}
	model := ps.Model
	if model == "" {
		model = "command-r-plus"
	}
	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &CohereClient{
		apiKey:      ps.APIKey,
		baseURL:     baseURL,
		model:       model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: timeout},
	}
}

func (c *CohereClient) Name() string {
	return "cohere"
}

func (c *CohereClient) Generate(ctx context.Context, prompt, system string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("cohere: %w", ErrCredentialMissing)
	}

	reqBody := map[string]interface{}{
		"model":       c.model,
		"message":     prompt,
		"temperature": c.temperature,
	}
	if system != "" {
		reqBody["preamble"] = system
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("cohere request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &Error{Provider: "cohere", Status: resp.StatusCode, Body: string(errBody)}
	}

	var cohereResp struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&cohereResp); err != nil {
		return "", fmt.Errorf("failed to decode cohere response: %w", err)
	}
	if cohereResp.Text == "" {
		return "", fmt.Errorf("empty response from cohere")
	}

	return postprocess.Clean(cohereResp.Text), nil
}
