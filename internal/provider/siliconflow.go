package provider

import (
	"github.com/valpere/lingodoc/internal/config"
)

// NewSiliconFlow builds the SiliconFlow client (OpenAI-compatible endpoint).
func NewSiliconFlow(cfg config.Settings) Client {
	ps := cfg.Provider("siliconflow")
	baseURL := ps.BaseURL
	if baseURL == "" {
		baseURL = "https://api.siliconflow.cn/v1"
	}
	model := ps.Model
	if model == "" {
		model = "Pro/deepseek-ai/DeepSeek-V3"
	}
	return newChatClient("siliconflow", ps.APIKey, baseURL, model, cfg.Temperature, cfg.LLMTimeout)
}
