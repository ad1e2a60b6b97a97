package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultDeepLBaseURL = "https://api.deepl.com/v2"

// DeepLService enhances text through the DeepL REST API.
type DeepLService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewDeepLService(apiKey string, timeout time.Duration) *DeepLService {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &DeepLService{
		apiKey:  apiKey,
		baseURL: defaultDeepLBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *DeepLService) Name() string { return "deepl" }

func (s *DeepLService) Enhance(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("deepl api key not configured")
	}

	payload := map[string]any{
		"text":        []string{text},
		"source_lang": NormalizeLanguageCode(sourceLang, "deepl"),
		"target_lang": NormalizeLanguageCode(targetLang, "deepl"),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errServiceStatus("deepl", resp.StatusCode, string(respBody))
	}

	var result struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Translations) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	return result.Translations[0].Text, nil
}
