// Package artifact persists completed translations and their metadata records
// on disk. Translated documents keep the uploaded file's extension so
// downloads open with the right application.
package artifact

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Store writes translation outputs under translationsDir and JSON metadata
// records under metadataDir.
type Store struct {
	translationsDir string
	metadataDir     string
	logger          *slog.Logger
}

func NewStore(translationsDir, metadataDir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, dir := range []string{translationsDir, metadataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return &Store{
		translationsDir: translationsDir,
		metadataDir:     metadataDir,
		logger:          logger,
	}, nil
}

// SaveArtifact writes the translated text and returns the output path. The
// filename is derived from the job id plus the original file's extension.
func (s *Store) SaveArtifact(jobID, text, originalFilename string) (string, error) {
	path := s.ArtifactPath(jobID, originalFilename)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to save translation: %w", err)
	}
	return path, nil
}

// ArtifactPath returns where SaveArtifact would write for the given job.
func (s *Store) ArtifactPath(jobID, originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	return filepath.Join(s.translationsDir, fmt.Sprintf("%s_translated%s", jobID, ext))
}

// SaveMetadata writes the metadata record for a job. Metadata is advisory, so
// failures are logged and swallowed rather than failing the job.
func (s *Store) SaveMetadata(jobID string, metadata map[string]any) {
	path := filepath.Join(s.metadataDir, jobID+".json")

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		s.logger.Warn("could not encode metadata", "job_id", jobID, "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Warn("could not save metadata", "job_id", jobID, "error", err)
	}
}

// Metadata loads the metadata record for a job, or nil when none exists.
func (s *Store) Metadata(jobID string) map[string]any {
	path := filepath.Join(s.metadataDir, jobID+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var metadata map[string]any
	if err := json.Unmarshal(data, &metadata); err != nil {
		s.logger.Warn("could not read metadata", "job_id", jobID, "error", err)
		return nil
	}
	return metadata
}

// Delete removes the artifact and metadata for a job. Missing files are not
// an error.
func (s *Store) Delete(jobID, originalFilename string) {
	if err := os.Remove(s.ArtifactPath(jobID, originalFilename)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("could not remove artifact", "job_id", jobID, "error", err)
	}
	if err := os.Remove(filepath.Join(s.metadataDir, jobID+".json")); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("could not remove metadata", "job_id", jobID, "error", err)
	}
}
