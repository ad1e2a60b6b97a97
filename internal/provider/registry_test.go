package provider

import (
	"errors"
	"testing"

	"github.com/valpere/lingodoc/internal/config"
)

func settingsWithKeys(defaultProvider string, keys map[string]string) config.Settings {
	providers := make(map[string]config.ProviderSettings)
	for name, key := range keys {
		providers[name] = config.ProviderSettings{APIKey: key}
	}
	return config.Settings{
		DefaultProvider:        defaultProvider,
		Providers:              providers,
		AllowProviderSelection: true,
	}
}

func TestResolve_RequestedProviderWithCredential(t *testing.T) {
	cfg := settingsWithKeys("openai", map[string]string{
		"openai": "key-a",
		"groq":   "key-b",
	})
	r := NewResolver(cfg)

	client, err := r.Resolve("groq", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Name() != "groq" {
		t.Errorf("resolved %q, want groq", client.Name())
	}
}

func TestResolve_FallbackToFirstCredentialed(t *testing.T) {
	// Only anthropic has a credential; requesting openai must fall back
	// to anthropic by priority order.
	cfg := settingsWithKeys("openai", map[string]string{
		"anthropic": "key",
	})
	r := NewResolver(cfg)

	client, err := r.Resolve("openai", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Name() != "anthropic" {
		t.Errorf("resolved %q, want anthropic", client.Name())
	}
}

func TestResolve_PriorityOrder(t *testing.T) {
	// Several credentialed providers: the first in priority order after
	// the failed request wins, not an arbitrary one.
	cfg := settingsWithKeys("openai", map[string]string{
		"deepseek": "key-1",
		"google":   "key-2",
	})
	r := NewResolver(cfg)

	client, err := r.Resolve("openai", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Name() != "google" {
		t.Errorf("resolved %q, want google (higher priority than deepseek)", client.Name())
	}
}

func TestResolve_EmptyRequestUsesDefault(t *testing.T) {
	cfg := settingsWithKeys("cohere", map[string]string{
		"cohere": "key",
		"openai": "key",
	})
	r := NewResolver(cfg)

	client, err := r.Resolve("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Name() != "cohere" {
		t.Errorf("resolved %q, want the default cohere", client.Name())
	}
}

func TestResolve_UnknownNameFallsBackToDefault(t *testing.T) {
	cfg := settingsWithKeys("openai", map[string]string{
		"openai": "key",
	})
	r := NewResolver(cfg)

	client, err := r.Resolve("not-a-provider", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Name() != "openai" {
		t.Errorf("resolved %q, want openai", client.Name())
	}
}

func TestResolve_NoCredentialsAnywhere(t *testing.T) {
	cfg := settingsWithKeys("openai", nil)
	r := NewResolver(cfg)

	_, err := r.Resolve("openai", "")
	if !errors.Is(err, ErrNoProviderAvailable) {
		t.Errorf("expected ErrNoProviderAvailable, got %v", err)
	}
}

func TestResolve_UserPinOverridesRequest(t *testing.T) {
	cfg := settingsWithKeys("openai", map[string]string{
		"openai": "key",
		"groq":   "key",
	})
	cfg.Users = map[string]config.UserSettings{
		"alice": {Provider: "groq", AllowProviderSelection: false},
	}
	r := NewResolver(cfg)

	client, err := r.Resolve("openai", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Name() != "groq" {
		t.Errorf("resolved %q, want the pinned groq", client.Name())
	}
}

func TestResolve_UserWithSelectionAllowed(t *testing.T) {
	cfg := settingsWithKeys("openai", map[string]string{
		"openai": "key",
		"groq":   "key",
	})
	cfg.Users = map[string]config.UserSettings{
		"bob": {Provider: "groq", AllowProviderSelection: true},
	}
	r := NewResolver(cfg)

	client, err := r.Resolve("openai", "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Name() != "openai" {
		t.Errorf("resolved %q, want the requested openai", client.Name())
	}
}

func TestRegistry_CoversAllProviders(t *testing.T) {
	want := []string{"openai", "anthropic", "google", "groq", "cohere", "huggingface", "deepseek", "siliconflow"}
	if len(Registry) != len(want) {
		t.Fatalf("registry has %d entries, want %d", len(Registry), len(want))
	}
	for i, name := range want {
		if Registry[i].Name != name {
			t.Errorf("registry[%d] = %q, want %q", i, Registry[i].Name, name)
		}
	}
}
