// Package validator checks that a translated document is actually written in
// the requested target language. Validation is advisory: the pipeline logs a
// mismatch but still delivers the result.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/lingodoc/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt language
// detection. Shorter texts produce unreliable results and are accepted
// without validation.
const minValidationLength = 20

// Validator verifies translation output language. The underlying language
// detector is expensive to build; reuse the instance.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator backed by the lingua-go language detector.
func New() *Validator {
	return &Validator{det: detector.New()}
}

// Check returns nil when translatedText appears to be written in targetLang.
//
// Short texts (fewer than minValidationLength runes) and texts whose language
// cannot be determined pass without error. When the detected language differs
// from targetLang the returned error names both codes.
func (v *Validator) Check(translatedText, targetLang string) error {
	if targetLang == "" {
		return nil
	}

	text := strings.TrimSpace(translatedText)
	if text == "" {
		return fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return nil
	}

	detected, ok := v.det.DetectCode(text)
	if !ok {
		// Ambiguous language, cannot validate.
		return nil
	}

	if !strings.EqualFold(detected, targetLang) {
		return fmt.Errorf("expected %s but detected %s", targetLang, detected)
	}

	return nil
}
