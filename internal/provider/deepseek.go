package provider

import (
	"github.com/valpere/lingodoc/internal/config"
)

// NewDeepSeek builds the DeepSeek client (OpenAI-compatible endpoint).
func NewDeepSeek(cfg config.Settings) Client {
	ps := cfg.Provider("deepseek")
	baseURL := ps.BaseURL
	if baseURL == "" {
		baseURL = "https://api.deepseek.com/v1"
	}
	model := ps.Model
	if model == "" {
		model = "deepseek-chat"
	}
	return newChatClient("deepseek", ps.APIKey, baseURL, model, cfg.Temperature, cfg.LLMTimeout)
}
