// Package config loads the process-wide Settings value.
//
// Settings is resolved exactly once at startup from an optional YAML file
// plus LINGODOC_* environment variables and passed by value into every
// component. Nothing re-reads the environment afterwards; the rare hot-reload
// need is served by calling Load again explicitly.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProviderSettings holds the resolved credential and model for one LLM vendor.
// Treated as a value object; never mutated after Load.
type ProviderSettings struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// UserSettings pins per-user behavior. When AllowProviderSelection is false
// the user's configured Provider overrides whatever the caller requested.
type UserSettings struct {
	Provider               string `mapstructure:"provider"`
	AllowProviderSelection bool   `mapstructure:"allow_provider_selection"`
	WebService             string `mapstructure:"web_service"`
}

// WebTranslationSettings holds credentials for the optional post-translation
// enhancement services.
type WebTranslationSettings struct {
	GoogleCredentials string `mapstructure:"google_credentials"`
	DeepLAPIKey       string `mapstructure:"deepl_api_key"`
	MicrosoftAPIKey   string `mapstructure:"microsoft_api_key"`
	MicrosoftRegion   string `mapstructure:"microsoft_region"`
}

// Settings is the complete resolved configuration.
type Settings struct {
	DefaultProvider string                      `mapstructure:"default_provider"`
	Providers       map[string]ProviderSettings `mapstructure:"providers"`
	Temperature     float64                     `mapstructure:"temperature"`
	LLMTimeout      time.Duration               `mapstructure:"llm_timeout"`

	ChunkSize    int     `mapstructure:"chunk_size"`
	ChunkOverlap int     `mapstructure:"chunk_overlap"`
	TMThreshold  float64 `mapstructure:"tm_threshold"`
	RAGEnabled   bool    `mapstructure:"rag_enabled"`
	RAGContextK  int     `mapstructure:"rag_context_k"`

	DBPath          string `mapstructure:"db_path"`
	TranslationsDir string `mapstructure:"translations_dir"`
	MetadataDir     string `mapstructure:"metadata_dir"`
	TMXDir          string `mapstructure:"tmx_dir"`

	EmbedderURL   string `mapstructure:"embedder_url"`
	EmbedderModel string `mapstructure:"embedder_model"`

	DefaultWebService      string                  `mapstructure:"default_web_service"`
	AllowProviderSelection bool                    `mapstructure:"allow_provider_selection"`
	Users                  map[string]UserSettings `mapstructure:"users"`
	WebTranslation         WebTranslationSettings  `mapstructure:"web_translation"`
}

// credentialEnvVars maps provider credential keys to the conventional vendor
// environment variable, so deployments configured for the vendor SDKs work
// without a config file.
var credentialEnvVars = map[string]string{
	"providers.openai.api_key":      "OPENAI_API_KEY",
	"providers.anthropic.api_key":   "ANTHROPIC_API_KEY",
	"providers.google.api_key":      "GOOGLE_API_KEY",
	"providers.groq.api_key":        "GROQ_API_KEY",
	"providers.cohere.api_key":      "COHERE_API_KEY",
	"providers.huggingface.api_key": "HUGGINGFACE_API_KEY",
	"providers.deepseek.api_key":    "DEEPSEEK_API_KEY",
	"providers.siliconflow.api_key": "SILICONFLOW_API_KEY",

	"web_translation.google_credentials": "GOOGLE_APPLICATION_CREDENTIALS",
	"web_translation.deepl_api_key":      "DEEPL_API_KEY",
	"web_translation.microsoft_api_key":  "MICROSOFT_TRANSLATOR_API_KEY",
	"web_translation.microsoft_region":   "MICROSOFT_TRANSLATOR_REGION",
}

// Load resolves Settings from the given config file (may be empty for
// defaults + environment only).
func Load(configFile string) (Settings, error) {
	v := viper.New()

	v.SetDefault("default_provider", "openai")
	v.SetDefault("temperature", 0.1)
	v.SetDefault("llm_timeout", 120*time.Second)
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 200)
	v.SetDefault("tm_threshold", 0.7)
	v.SetDefault("rag_enabled", true)
	v.SetDefault("rag_context_k", 3)
	v.SetDefault("db_path", "./data/lingodoc.db")
	v.SetDefault("translations_dir", "./data/translations")
	v.SetDefault("metadata_dir", "./data/metadata")
	v.SetDefault("tmx_dir", "./data/tmx")
	v.SetDefault("embedder_url", "http://localhost:11434")
	v.SetDefault("embedder_model", "nomic-embed-text")
	v.SetDefault("default_web_service", "none")
	v.SetDefault("allow_provider_selection", true)
	v.SetDefault("microsoft_region", "global")

	for _, p := range []string{"openai", "anthropic", "google", "groq", "cohere", "huggingface", "deepseek", "siliconflow"} {
		v.SetDefault("providers."+p+".api_key", "")
		v.SetDefault("providers."+p+".model", "")
	}

	v.SetEnvPrefix("LINGODOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, envVar := range credentialEnvVars {
		if err := v.BindEnv(key, envVar); err != nil {
			return Settings{}, fmt.Errorf("failed to bind %s: %w", envVar, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return s, nil
}

// Provider returns the settings block for a provider name (zero value when
// the provider is unknown).
func (s Settings) Provider(name string) ProviderSettings {
	return s.Providers[name]
}

// UserProvider returns the provider a user is pinned to, or "" when the user
// has no pin.
func (s Settings) UserProvider(userID string) string {
	if u, ok := s.Users[userID]; ok {
		return u.Provider
	}
	return ""
}

// ProviderSelectionAllowed reports whether the user may choose a provider per
// request. Users without explicit settings inherit the global flag.
func (s Settings) ProviderSelectionAllowed(userID string) bool {
	if u, ok := s.Users[userID]; ok {
		return u.AllowProviderSelection
	}
	return s.AllowProviderSelection
}

// WebServiceFor returns the enhancement service configured for a user
// ("none" disables enhancement).
func (s Settings) WebServiceFor(userID string) string {
	if u, ok := s.Users[userID]; ok && u.WebService != "" {
		return u.WebService
	}
	if s.DefaultWebService != "" {
		return s.DefaultWebService
	}
	return "none"
}
