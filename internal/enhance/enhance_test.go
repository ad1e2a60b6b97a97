package enhance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/valpere/lingodoc/internal/config"
)

func TestNormalizeLanguageCode(t *testing.T) {
	cases := []struct {
		code, service, want string
	}{
		{"en", "google", "en"},
		{"EN", "google", "en"},
		{"chinese", "google", "zh-CN"},
		{"chinese_traditional", "google", "zh-TW"},
		{"chinese", "microsoft", "zh-Hans"},
		{"chinese_traditional", "microsoft", "zh-Hant"},
		{"chinese", "deepl", "ZH"},
		{"german", "deepl", "DE"},
		{"uk", "deepl", "UK"},
		{"es", "deepl", "ES"},
		{"es", "microsoft", "es"},
	}
	for _, tc := range cases {
		if got := NormalizeLanguageCode(tc.code, tc.service); got != tc.want {
			t.Errorf("NormalizeLanguageCode(%q, %q) = %q, want %q", tc.code, tc.service, got, tc.want)
		}
	}
}

func TestNone_Passthrough(t *testing.T) {
	got, err := None{}.Enhance(context.Background(), "unchanged text", "en", "es")
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if got != "unchanged text" {
		t.Errorf("got %q", got)
	}
}

func TestForName(t *testing.T) {
	cfg := config.Settings{}
	cases := map[string]string{
		"none":      "none",
		"":          "none",
		"unknown":   "none",
		"google":    "google",
		"deepl":     "deepl",
		"microsoft": "microsoft",
	}
	for name, want := range cases {
		if got := ForName(name, cfg).Name(); got != want {
			t.Errorf("ForName(%q).Name() = %q, want %q", name, got, want)
		}
	}
}

func TestDeepL_Enhance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "DeepL-Auth-Key test-key" {
			t.Errorf("authorization = %q", auth)
		}
		var req struct {
			Text       []string `json:"text"`
			SourceLang string   `json:"source_lang"`
			TargetLang string   `json:"target_lang"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.SourceLang != "EN" || req.TargetLang != "ES" {
			t.Errorf("langs = %s -> %s, want uppercase", req.SourceLang, req.TargetLang)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"translations": []map[string]string{{"text": "Hola mundo."}},
		})
	}))
	defer srv.Close()

	svc := NewDeepLService("test-key", 0)
	svc.baseURL = srv.URL
	got, err := svc.Enhance(context.Background(), "Hello world.", "en", "es")
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if got != "Hola mundo." {
		t.Errorf("got %q", got)
	}
}

func TestDeepL_MissingKey(t *testing.T) {
	svc := NewDeepLService("", 0)
	_, err := svc.Enhance(context.Background(), "text", "en", "es")
	if err == nil {
		t.Fatal("expected error without an api key")
	}
}

func TestDeepL_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", 456)
	}))
	defer srv.Close()

	svc := NewDeepLService("test-key", 0)
	svc.baseURL = srv.URL
	_, err := svc.Enhance(context.Background(), "text", "en", "es")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "456") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestMicrosoft_Enhance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api-version") != "3.0" || q.Get("from") != "en" || q.Get("to") != "fr" {
			t.Errorf("query = %v", q)
		}
		if key := r.Header.Get("Ocp-Apim-Subscription-Key"); key != "ms-key" {
			t.Errorf("subscription key = %q", key)
		}
		if region := r.Header.Get("Ocp-Apim-Subscription-Region"); region != "westeurope" {
			t.Errorf("region = %q", region)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"translations": []map[string]string{{"text": "Bonjour le monde."}}},
		})
	}))
	defer srv.Close()

	svc := NewMicrosoftService("ms-key", "westeurope", 0)
	svc.baseURL = srv.URL
	got, err := svc.Enhance(context.Background(), "Hello world.", "en", "fr")
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if got != "Bonjour le monde." {
		t.Errorf("got %q", got)
	}
}

func TestMicrosoft_DefaultRegion(t *testing.T) {
	svc := NewMicrosoftService("key", "", 0)
	if svc.region != "global" {
		t.Errorf("region = %q, want global", svc.region)
	}
}

func TestMicrosoft_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer srv.Close()

	svc := NewMicrosoftService("ms-key", "", 0)
	svc.baseURL = srv.URL
	_, err := svc.Enhance(context.Background(), "text", "en", "fr")
	if err == nil {
		t.Fatal("expected error for empty translation list")
	}
}
