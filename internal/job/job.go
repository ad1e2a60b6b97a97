// Package job defines the translation job lifecycle record and the registry
// that tracks status, progress, and result metadata per job id.
package job

import (
	"context"
	"time"
)

// Status is a job's lifecycle state. Transitions are monotonic: a job never
// moves back to an earlier state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// statusRank orders states for the monotonicity check.
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusCompleted:  2,
	StatusFailed:     2,
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ProcessingDetails records how a completed translation was produced.
type ProcessingDetails struct {
	Provider        string  `json:"provider"`
	ChunkCount      int     `json:"chunk_count"`
	TMMatchCount    int     `json:"tm_match_count"`
	RAGEnabled      bool    `json:"rag_enabled"`
	TokensEstimate  int     `json:"tokens_estimate"`
	ConfidenceScore float64 `json:"confidence_score"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
	Enhancer        string  `json:"enhancer,omitempty"`
}

// Job is one translation request's lifecycle record. The id is
// system-generated at submission and immutable. DownloadURL is set only on
// completion; ErrorMessage only on failure.
type Job struct {
	ID               string             `json:"id"`
	Owner            string             `json:"owner,omitempty"`
	SourceFile       string             `json:"source_file"`
	OriginalFileName string             `json:"original_file_name"`
	TargetLanguage   string             `json:"target_language"`
	SourceLanguage   string             `json:"source_language,omitempty"`
	Status           Status             `json:"status"`
	Progress         float64            `json:"progress"`
	DownloadURL      string             `json:"download_url,omitempty"`
	ErrorMessage     string             `json:"error_message,omitempty"`
	Details          *ProcessingDetails `json:"processing_details,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// Registry stores job records keyed by id. Implementations must be safe for
// concurrent use: progress reads may race an in-flight writer and must never
// observe a torn value.
type Registry interface {
	// Create stores a new job record.
	Create(ctx context.Context, j *Job) error

	// Get returns the job or nil when unknown.
	Get(ctx context.Context, id string) (*Job, error)

	// MarkProcessing moves a pending job to processing.
	MarkProcessing(ctx context.Context, id string) error

	// UpdateProgress sets the progress scalar. Decreasing values are
	// ignored so observed progress is non-decreasing.
	UpdateProgress(ctx context.Context, id string, progress float64) error

	// SetSourceLanguage records the detected source language.
	SetSourceLanguage(ctx context.Context, id, lang string) error

	// Complete finalizes a job atomically: status, progress=1, download
	// URL, and details land in a single transition.
	Complete(ctx context.Context, id, downloadURL string, details *ProcessingDetails) error

	// Fail moves a job to its failed terminal state with the causing
	// error text captured verbatim.
	Fail(ctx context.Context, id, errorMessage string) error

	// List returns jobs newest-first, filtered to owner when non-empty.
	List(ctx context.Context, owner string) ([]*Job, error)

	// Delete removes a job when requestingOwner matches the recorded
	// owner. It fails closed: false means not found or forbidden, and
	// callers must treat both identically.
	Delete(ctx context.Context, id, requestingOwner string) (bool, error)
}
