package provider

import (
	"github.com/valpere/lingodoc/internal/config"
)

// NewOpenAI builds the OpenAI chat completions client.
func NewOpenAI(cfg config.Settings) Client {
	ps := cfg.Provider("openai")
	baseURL := ps.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := ps.Model
	if model == "" {
		model = "gpt-4o"
	}
	return newChatClient("openai", ps.APIKey, baseURL, model, cfg.Temperature, cfg.LLMTimeout)
}
