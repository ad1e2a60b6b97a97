// Package chunker splits extracted document text into ordered segments for
// translation and embedding, preferring paragraph and sentence boundaries
// over hard cuts.
//
// Segments never overlap textually. Instead, each segment carries the
// trailing runes of its predecessor in a separate Context field that is
// injected into the translation prompt only. Reassembling a document is
// therefore a plain join of translations by index and overlapped text can
// never leak into the output.
package chunker

import (
	"strings"
	"unicode"
)

// Segment is one bounded slice of document text, the unit of translation
// and retrieval. Index is its position in the ordered sequence; Text is
// immutable once created.
type Segment struct {
	Index   int
	Text    string
	Context string
}

// Split cuts text into segments of at most chunkSize runes each and attaches
// up to overlap trailing runes of segment i as the Context of segment i+1.
//
// Empty or whitespace-only input produces zero segments; callers must treat
// that as a trivially complete document, not an error.
func Split(text string, chunkSize, overlap int) []Segment {
	pieces := split(text, chunkSize)

	segments := make([]Segment, 0, len(pieces))
	for i, piece := range pieces {
		seg := Segment{Index: i, Text: piece}
		if i > 0 && overlap > 0 {
			seg.Context = tail(pieces[i-1], overlap)
		}
		segments = append(segments, seg)
	}
	return segments
}

// split cuts text into pieces each no longer than maxRunes code points.
// Boundaries are attempted in order of preference:
//  1. Paragraph break (blank line)
//  2. Sentence-ending punctuation (. ! ?) followed by whitespace
//  3. Whitespace (word boundary)
//  4. Hard cut at maxRunes
//
// maxRunes <= 0 is treated as unlimited.
func split(text string, maxRunes int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if maxRunes <= 0 || len([]rune(trimmed)) <= maxRunes {
		return []string{trimmed}
	}

	var pieces []string
	remaining := trimmed
	for len([]rune(remaining)) > maxRunes {
		cut := findCut(remaining, maxRunes)
		piece := strings.TrimSpace(remaining[:cut])
		if piece != "" {
			pieces = append(pieces, piece)
		}
		remaining = strings.TrimSpace(remaining[cut:])
	}
	if remaining != "" {
		pieces = append(pieces, remaining)
	}
	return pieces
}

// findCut returns the byte offset at which to split text so that the
// consumed prefix holds at most maxRunes runes, searching backwards for the
// best boundary within the candidate prefix.
func findCut(text string, maxRunes int) int {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return len(text)
	}
	candidate := runes[:maxRunes]

	// Paragraph break.
	if idx := strings.LastIndex(string(candidate), "\n\n"); idx > 0 {
		return idx + 2
	}
	if idx := strings.LastIndex(string(candidate), "\r\n\r\n"); idx > 0 {
		return idx + 4
	}

	// Sentence end followed by whitespace.
	for i := len(candidate) - 2; i > 0; i-- {
		r := candidate[i]
		if (r == '.' || r == '!' || r == '?') && unicode.IsSpace(candidate[i+1]) {
			return len(string(candidate[:i+1]))
		}
	}

	// Word boundary.
	for i := len(candidate) - 1; i > 0; i-- {
		if unicode.IsSpace(candidate[i]) {
			return len(string(candidate[:i]))
		}
	}

	// Hard cut.
	return len(string(candidate))
}

// tail returns at most n trailing runes of text, advanced to the first word
// boundary so the snippet does not start mid-word.
func tail(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	snippet := string(runes[len(runes)-n:])
	if idx := strings.IndexFunc(snippet, unicode.IsSpace); idx >= 0 {
		snippet = snippet[idx:]
	}
	return strings.TrimSpace(snippet)
}
