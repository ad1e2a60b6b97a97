package validator

import (
	"testing"
)

func TestCheck_EmptyTargetLang(t *testing.T) {
	v := New()

	if err := v.Check("Some translated text", ""); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheck_EmptyTranslation(t *testing.T) {
	v := New()

	if err := v.Check("", "en"); err == nil {
		t.Error("expected error for empty translation")
	}
}

func TestCheck_WhitespaceOnlyTranslation(t *testing.T) {
	v := New()

	if err := v.Check("   ", "en"); err == nil {
		t.Error("expected error for whitespace-only translation")
	}
}

func TestCheck_ShortText(t *testing.T) {
	v := New()

	// Below minValidationLength, detection is skipped entirely.
	if err := v.Check("Hi", "en"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheck_EnglishToEnglish(t *testing.T) {
	v := New()

	text := "This is a longer piece of text that should be detected as English."
	if err := v.Check(text, "en"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheck_MismatchedLanguage(t *testing.T) {
	v := New()

	englishText := "This is a longer piece of text that should be detected as English."
	if err := v.Check(englishText, "uk"); err == nil {
		t.Error("expected error when detecting English but expecting Ukrainian")
	}
}

func TestCheck_UkrainianText(t *testing.T) {
	v := New()

	ukrainianText := "Це є тестовий текст українською мовою для перевірки роботи валідатора."
	if err := v.Check(ukrainianText, "uk"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheck_CaseInsensitiveTargetLang(t *testing.T) {
	v := New()

	text := "This is a longer piece of text that should be detected as English."
	if err := v.Check(text, "EN"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
