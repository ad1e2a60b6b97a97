package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/lingodoc/internal/config"
	"github.com/valpere/lingodoc/internal/postprocess"
)

// HuggingFaceClient speaks the Hugging Face serverless inference API.
type HuggingFaceClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewHuggingFace builds the Hugging Face inference client.
func NewHuggingFace(cfg config.Settings) Client {
	ps := cfg.Provider("huggingface")
	baseURL := ps.BaseURL
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co/models"
	}
	model := ps.Model
	if model == "" {
		model = "mistralai/Mistral-7B-Instruct-v0.2"
	}
	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &HuggingFaceClient{
		apiKey:  ps.APIKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HuggingFaceClient) Name() string {
	return "huggingface"
}

func (c *HuggingFaceClient) Generate(ctx context.Context, prompt, system string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("huggingface: %w", ErrCredentialMissing)
	}

	// The serverless text-generation endpoint has no system slot; prepend it.
	input := prompt
	if system != "" {
		input = system + "\n\n" + prompt
	}

	body, err := json.Marshal(map[string]interface{}{
		"inputs": input,
		"parameters": map[string]interface{}{
			"return_full_text": false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), c.model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("huggingface request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &Error{Provider: "huggingface", Status: resp.StatusCode, Body: string(errBody)}
	}

	var hfResp []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&hfResp); err != nil {
		return "", fmt.Errorf("failed to decode huggingface response: %w", err)
	}
	if len(hfResp) == 0 {
		return "", fmt.Errorf("empty response from huggingface")
	}

	return postprocess.Clean(hfResp[0].GeneratedText), nil
}
