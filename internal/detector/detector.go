// Package detector identifies the language of source documents so jobs
// submitted with "auto" get a concrete source language before translation.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// sampleLimit caps how much of a document is fed to the detector. Language
// identity stabilizes long before this point and large documents should not
// pay for full-text analysis.
const sampleLimit = 2000

type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(sample(text))
}

// DetectCode returns the lower-case ISO 639-1 code for the detected language
// ("en", "uk"). The second result is false when detection fails.
func (d *Detector) DetectCode(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

func sample(text string) string {
	runes := []rune(text)
	if len(runes) <= sampleLimit {
		return text
	}
	return string(runes[:sampleLimit])
}
