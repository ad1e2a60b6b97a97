// Package enhance runs a translated document through an external web
// translation service as a polish pass. Enhancement is strictly best-effort:
// callers treat any error as "keep the LLM output as-is".
package enhance

import (
	"context"
	"fmt"
	"strings"

	"github.com/valpere/lingodoc/internal/config"
)

// Service polishes an already-translated text.
type Service interface {
	Name() string
	Enhance(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// ForName builds the Service for a configured service name. Unknown names and
// "none" both return the passthrough service.
func ForName(name string, cfg config.Settings) Service {
	switch name {
	case "google":
		return NewGoogleService(cfg.WebTranslation.GoogleCredentials)
	case "deepl":
		return NewDeepLService(cfg.WebTranslation.DeepLAPIKey, cfg.LLMTimeout)
	case "microsoft":
		return NewMicrosoftService(cfg.WebTranslation.MicrosoftAPIKey, cfg.WebTranslation.MicrosoftRegion, cfg.LLMTimeout)
	default:
		return None{}
	}
}

// None is the disabled enhancer. It returns the input unchanged.
type None struct{}

func (None) Name() string { return "none" }

func (None) Enhance(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

// NormalizeLanguageCode maps human-readable language names to the code form a
// given service expects. Codes already in ISO form pass through, except that
// DeepL requires uppercase.
func NormalizeLanguageCode(languageCode, service string) string {
	code := strings.ToLower(languageCode)

	if m, ok := languageMappings[service]; ok {
		if mapped, ok := m[code]; ok {
			return mapped
		}
	}

	if service == "deepl" {
		return strings.ToUpper(code)
	}
	return code
}

var languageMappings = map[string]map[string]string{
	"google": {
		"chinese":             "zh-CN",
		"chinese_traditional": "zh-TW",
		"chinese_simplified":  "zh-CN",
	},
	"microsoft": {
		"chinese":             "zh-Hans",
		"chinese_traditional": "zh-Hant",
		"chinese_simplified":  "zh-Hans",
	},
	"deepl": {
		"chinese":    "ZH",
		"english":    "EN",
		"german":     "DE",
		"french":     "FR",
		"spanish":    "ES",
		"portuguese": "PT",
		"italian":    "IT",
		"dutch":      "NL",
		"polish":     "PL",
		"russian":    "RU",
		"japanese":   "JA",
	},
}

func errServiceStatus(service string, status int, body string) error {
	return fmt.Errorf("%s returned status %d: %s", service, status, strings.TrimSpace(body))
}
