// Package extract turns uploaded document files into plain text for the
// translation pipeline.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valpere/lingodoc/internal/markdown"
)

// ErrUnsupportedFormat marks file types the extractor cannot read.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extractor reads a document file and returns its text content.
type Extractor interface {
	Extract(path string) (string, error)
}

// FileExtractor handles the plain-text formats. Binary document formats
// (docx, pdf) and tabular ones (csv, xlsx) are rejected with
// ErrUnsupportedFormat.
type FileExtractor struct{}

func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

func (e *FileExtractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".txt", ".text":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), nil

	case ".md", ".markdown":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return markdown.ToPlainText(data), nil

	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}
