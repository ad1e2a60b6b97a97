package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultMicrosoftBaseURL = "https://api.cognitive.microsofttranslator.com"

// MicrosoftService enhances text through the Microsoft Translator v3 API.
type MicrosoftService struct {
	apiKey  string
	region  string
	baseURL string
	client  *http.Client
}

func NewMicrosoftService(apiKey, region string, timeout time.Duration) *MicrosoftService {
	if region == "" {
		region = "global"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &MicrosoftService{
		apiKey:  apiKey,
		region:  region,
		baseURL: defaultMicrosoftBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *MicrosoftService) Name() string { return "microsoft" }

func (s *MicrosoftService) Enhance(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("microsoft translator api key not configured")
	}

	params := url.Values{}
	params.Set("api-version", "3.0")
	params.Set("from", NormalizeLanguageCode(sourceLang, "microsoft"))
	params.Set("to", NormalizeLanguageCode(targetLang, "microsoft"))

	body, err := json.Marshal([]map[string]string{{"text": text}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/translate?"+params.Encode(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.apiKey)
	req.Header.Set("Ocp-Apim-Subscription-Region", s.region)
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
		return "", errServiceStatus("microsoft", resp.StatusCode, string(respBody))
	}

	var result []struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result) == 0 || len(result[0].Translations) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	return result[0].Translations[0].Text, nil
}
