package provider

import (
	"github.com/valpere/lingodoc/internal/config"
)

// NewGroq builds the Groq client (OpenAI-compatible endpoint).
func NewGroq(cfg config.Settings) Client {
	ps := cfg.Provider("groq")
	baseURL := ps.BaseURL
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}
	model := ps.Model
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return newChatClient("groq", ps.APIKey, baseURL, model, cfg.Temperature, cfg.LLMTimeout)
}
