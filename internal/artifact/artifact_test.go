package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(filepath.Join(dir, "translations"), filepath.Join(dir, "metadata"), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestSaveArtifact(t *testing.T) {
	s := newTestStore(t)

	path, err := s.SaveArtifact("job-1", "Hola mundo.", "report.txt")
	if err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
	if !strings.HasSuffix(path, "job-1_translated.txt") {
		t.Errorf("path = %q, want job id plus original extension", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "Hola mundo." {
		t.Errorf("content = %q", data)
	}
}

func TestSaveArtifact_KeepsExtension(t *testing.T) {
	s := newTestStore(t)
	path, err := s.SaveArtifact("job-2", "# Titulo", "notes.md")
	if err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
	if filepath.Ext(path) != ".md" {
		t.Errorf("extension = %q, want .md", filepath.Ext(path))
	}
}

func TestMetadata_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	s.SaveMetadata("job-1", map[string]any{
		"provider":        "openai",
		"target_language": "es",
		"chunk_count":     float64(3),
	})

	got := s.Metadata("job-1")
	if got == nil {
		t.Fatal("Metadata returned nil")
	}
	if got["provider"] != "openai" || got["target_language"] != "es" {
		t.Errorf("metadata = %v", got)
	}
}

func TestMetadata_Unknown(t *testing.T) {
	s := newTestStore(t)
	if got := s.Metadata("nope"); got != nil {
		t.Errorf("got %v for unknown job, want nil", got)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	path, err := s.SaveArtifact("job-1", "text", "doc.txt")
	if err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
	s.SaveMetadata("job-1", map[string]any{"status": "completed"})

	s.Delete("job-1", "doc.txt")

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("artifact still present after delete")
	}
	if got := s.Metadata("job-1"); got != nil {
		t.Error("metadata still present after delete")
	}

	// Deleting again is a no-op, not a crash or a warning-storm.
	s.Delete("job-1", "doc.txt")
}

func TestNewStore_CreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	translations := filepath.Join(dir, "a", "b", "translations")
	metadata := filepath.Join(dir, "a", "b", "metadata")

	if _, err := NewStore(translations, metadata, nil); err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for _, d := range []string{translations, metadata} {
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			t.Errorf("directory %s not created: %v", d, err)
		}
	}
}
