package placeholder_test

import (
	"strings"
	"testing"

	"github.com/valpere/lingodoc/internal/placeholder"
)

func TestProtect_NoMarkup(t *testing.T) {
	text := "Hello, world!"
	got, markers := placeholder.Protect(text)
	if got != text {
		t.Errorf("expected unchanged text, got %q", got)
	}
	if len(markers) != 0 {
		t.Errorf("expected 0 markers, got %d", len(markers))
	}
}

func TestProtect_HTMLTags(t *testing.T) {
	text := "<p>Hello <b>world</b></p>"
	got, markers := placeholder.Protect(text)

	if len(markers) != 4 {
		t.Fatalf("expected 4 markers (<p>, <b>, </b>, </p>), got %d: %v", len(markers), markers)
	}
	for _, tag := range []string{"<p>", "<b>", "</b>", "</p>"} {
		if strings.Contains(got, tag) {
			t.Errorf("expected tag %q to be replaced, still present in %q", tag, got)
		}
	}
}

func TestProtect_URL(t *testing.T) {
	text := "See https://example.com/docs for details."
	got, markers := placeholder.Protect(text)

	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d: %v", len(markers), markers)
	}
	if strings.Contains(got, "https://") {
		t.Errorf("URL still present in %q", got)
	}
	if !strings.Contains(got, "[PH0]") {
		t.Errorf("expected [PH0] in %q", got)
	}
}

func TestProtect_Email(t *testing.T) {
	text := "Contact support@example.com with questions."
	got, markers := placeholder.Protect(text)

	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	if strings.Contains(got, "support@example.com") {
		t.Error("email still present after Protect")
	}
}

func TestProtect_InlineCode(t *testing.T) {
	text := "Use `fmt.Println` to print."
	got, markers := placeholder.Protect(text)

	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	if strings.Contains(got, "`fmt.Println`") {
		t.Error("inline code still present after Protect")
	}
	if !strings.Contains(got, "[PH0]") {
		t.Errorf("expected [PH0] in %q", got)
	}
}

func TestProtect_Mixed(t *testing.T) {
	text := "See <a href=\"#\">link</a> or https://example.com or `code` here."
	_, markers := placeholder.Protect(text)

	// 2 HTML tags + 1 URL + 1 inline code = 4 markers
	if len(markers) != 4 {
		t.Fatalf("expected 4 markers, got %d: %v", len(markers), markers)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	original := "<p>Hello <b>world</b></p> at https://example.com"
	protected, markers := placeholder.Protect(original)

	restored := placeholder.Restore(protected, markers)
	if restored != original {
		t.Errorf("round-trip failed:\n  original:  %q\n  restored:  %q", original, restored)
	}
}

func TestRestore_OutOfRangeIndexIgnored(t *testing.T) {
	// A translated text that invents a placeholder index that doesn't exist.
	text := "[PH99] some text"
	restored := placeholder.Restore(text, []string{"<p>"})
	if !strings.Contains(restored, "[PH99]") {
		t.Errorf("expected [PH99] to remain, got %q", restored)
	}
}

func TestRestore_MissingMarkerIgnored(t *testing.T) {
	// Simulates a model that dropped [PH1] from the translation.
	original := "<p>Hello</p> <b>world</b>"
	protected, markers := placeholder.Protect(original)

	withoutPH1 := strings.Replace(protected, "[PH1]", "", 1)

	restored := placeholder.Restore(withoutPH1, markers)
	if strings.Contains(restored, "[PH1]") {
		t.Errorf("unexpected [PH1] in %q", restored)
	}
}

func TestValidate_AllPresent(t *testing.T) {
	text := "[PH0] some [PH1] text"
	markers := []string{"<p>", "</p>"}
	missing := placeholder.Validate(text, markers)
	if len(missing) != 0 {
		t.Errorf("expected no missing, got %v", missing)
	}
}

func TestValidate_SomeMissing(t *testing.T) {
	text := "[PH0] some text"
	markers := []string{"<p>", "</p>", "<b>"}
	missing := placeholder.Validate(text, markers)
	if len(missing) != 2 {
		t.Errorf("expected 2 missing (indices 1,2), got %v", missing)
	}
	if missing[0] != 1 || missing[1] != 2 {
		t.Errorf("expected missing [1 2], got %v", missing)
	}
}

func TestInstructionHint_NotEmpty(t *testing.T) {
	if placeholder.InstructionHint() == "" {
		t.Error("InstructionHint should not return empty string")
	}
}
