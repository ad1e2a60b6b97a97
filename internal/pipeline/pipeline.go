// Package pipeline orchestrates document translation jobs.
//
// A job moves through a fixed sequence of stages: extract, detect language,
// chunk, translation-memory lookup, context embedding, provider resolution,
// per-segment translation, enhancement, and persistence. Stages run strictly
// sequentially within a job; jobs for different ids run concurrently up to a
// configured limit. There is no automatic retry anywhere: the first stage
// failure moves the job to its failed terminal state with the causing error
// captured verbatim.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/valpere/lingodoc/internal/chunker"
	"github.com/valpere/lingodoc/internal/config"
	"github.com/valpere/lingodoc/internal/confidence"
	"github.com/valpere/lingodoc/internal/detector"
	"github.com/valpere/lingodoc/internal/enhance"
	"github.com/valpere/lingodoc/internal/job"
	"github.com/valpere/lingodoc/internal/memory"
	"github.com/valpere/lingodoc/internal/placeholder"
	"github.com/valpere/lingodoc/internal/provider"
	"github.com/valpere/lingodoc/internal/validator"
	"github.com/valpere/lingodoc/internal/vecstore"
)

// Progress checkpoints, one per stage boundary. The translate loop advances
// linearly between progressTranslate and progressEnhance.
const (
	progressStart     = 0.10
	progressExtract   = 0.15
	progressDetect    = 0.20
	progressChunk     = 0.25
	progressTMLookup  = 0.30
	progressEmbed     = 0.40
	progressResolve   = 0.50
	progressTranslate = 0.60
	progressEnhance   = 0.80
	progressPersist   = 0.90
)

// TranslationMemory is the pipeline's view of the TM store.
type TranslationMemory interface {
	Search(ctx context.Context, queryText, sourceLang, targetLang string, threshold float64) ([]memory.Match, error)
	Add(ctx context.Context, sourceText, sourceLang, targetText, targetLang string) (string, error)
}

// ContextStore is the pipeline's view of the per-user context index.
type ContextStore interface {
	AddDocuments(ctx context.Context, userID string, pairs []vecstore.Pair, sourceLang, targetLang string) error
	Search(ctx context.Context, userID, query, sourceLang, targetLang string, k int) ([]vecstore.Document, error)
}

// Resolver picks a provider client for a job.
type Resolver interface {
	Resolve(requested, userID string) (provider.Client, error)
}

// Extractor reads a document file into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}

// ArtifactStore persists completed translations and metadata records.
type ArtifactStore interface {
	SaveArtifact(jobID, text, originalFileName string) (string, error)
	SaveMetadata(jobID string, metadata map[string]any)
	Delete(jobID, originalFileName string)
}

// Deps bundles everything a Pipeline needs. Detector and Validator may be nil
// to skip language detection (jobs must then carry an explicit source
// language) and output validation.
type Deps struct {
	Jobs      job.Registry
	Memory    TranslationMemory
	Contexts  ContextStore
	Resolver  Resolver
	Extractor Extractor
	Artifacts ArtifactStore
	Detector  *detector.Detector
	Validator *validator.Validator

	// EnhancerFor maps a configured service name to an enhancer. Defaults
	// to enhance.ForName over the pipeline settings.
	EnhancerFor func(name string) enhance.Service

	Logger *slog.Logger

	// MaxConcurrent bounds how many jobs run at once (default 4).
	MaxConcurrent int64
}

// Pipeline runs translation jobs in the background and records their
// lifecycle in the job registry.
type Pipeline struct {
	cfg config.Settings

	jobs        job.Registry
	memory      TranslationMemory
	contexts    ContextStore
	resolver    Resolver
	extractor   Extractor
	artifacts   ArtifactStore
	detector    *detector.Detector
	validator   *validator.Validator
	enhancerFor func(name string) enhance.Service
	logger      *slog.Logger

	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func New(cfg config.Settings, deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	enhancerFor := deps.EnhancerFor
	if enhancerFor == nil {
		enhancerFor = func(name string) enhance.Service { return enhance.ForName(name, cfg) }
	}
	maxConcurrent := deps.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Pipeline{
		cfg:         cfg,
		jobs:        deps.Jobs,
		memory:      deps.Memory,
		contexts:    deps.Contexts,
		resolver:    deps.Resolver,
		extractor:   deps.Extractor,
		artifacts:   deps.Artifacts,
		detector:    deps.Detector,
		validator:   deps.Validator,
		enhancerFor: enhancerFor,
		logger:      logger,
		sem:         semaphore.NewWeighted(maxConcurrent),
	}
}

// Request describes one translation submission.
type Request struct {
	SourceFile       string
	OriginalFileName string
	SourceLanguage   string // "" or "auto" triggers detection
	TargetLanguage   string
	Provider         string // "" uses the configured default
	UserID           string // "" means anonymous
}

// Submit validates the request, creates the job record, and schedules the
// translation to run in the background.
//
// Provider resolution runs eagerly here so a deployment with no credentialed
// provider at all fails the submission with provider.ErrNoProviderAvailable
// instead of creating a job doomed to fail.
func (p *Pipeline) Submit(ctx context.Context, req Request) (*job.Job, error) {
	if req.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}
	if _, err := p.resolver.Resolve(req.Provider, req.UserID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	j := &job.Job{
		ID:               uuid.NewString(),
		Owner:            req.UserID,
		SourceFile:       req.SourceFile,
		OriginalFileName: req.OriginalFileName,
		TargetLanguage:   req.TargetLanguage,
		SourceLanguage:   sourceLangOrEmpty(req.SourceLanguage),
		Status:           job.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := p.jobs.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	p.wg.Add(1)
	go p.run(j.ID, req)

	return j, nil
}

// Wait blocks until every submitted job has finished. Used by the CLI before
// exit and by tests.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Delete removes a job, its artifact, and its metadata record. It fails
// closed: false when the job is unknown or owned by someone else.
func (p *Pipeline) Delete(ctx context.Context, jobID, requestingOwner string) (bool, error) {
	j, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		return false, err
	}
	if j == nil {
		return false, nil
	}

	ok, err := p.jobs.Delete(ctx, jobID, requestingOwner)
	if err != nil || !ok {
		return false, err
	}

	p.artifacts.Delete(jobID, j.OriginalFileName)
	return true, nil
}

// run executes one job under the concurrency limit. Background context: jobs
// have no cancellation primitive, they run to completion or failure.
func (p *Pipeline) run(jobID string, req Request) {
	defer p.wg.Done()

	ctx := context.Background()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.fail(ctx, jobID, req, err)
		return
	}
	defer p.sem.Release(1)

	if err := p.execute(ctx, jobID, req); err != nil {
		p.fail(ctx, jobID, req, err)
	}
}

// execute runs all stages for one job. Any returned error fails the job.
func (p *Pipeline) execute(ctx context.Context, jobID string, req Request) error {
	start := time.Now()

	if err := p.jobs.MarkProcessing(ctx, jobID); err != nil {
		return err
	}
	p.stage(ctx, jobID, "start", progressStart)

	p.stage(ctx, jobID, "extract", progressExtract)
	documentText, err := p.extractor.Extract(req.SourceFile)
	if err != nil {
		return err
	}

	p.stage(ctx, jobID, "detect_language", progressDetect)
	sourceLang, err := p.resolveSourceLanguage(req.SourceLanguage, documentText)
	if err != nil {
		return err
	}
	if err := p.jobs.SetSourceLanguage(ctx, jobID, sourceLang); err != nil {
		return err
	}

	p.stage(ctx, jobID, "chunk", progressChunk)
	segments := chunker.Split(documentText, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if len(segments) == 0 {
		return p.completeTrivial(ctx, jobID, req, sourceLang, start)
	}

	p.stage(ctx, jobID, "tm_lookup", progressTMLookup)
	tmMatches := p.lookupMemory(ctx, segments, sourceLang, req.TargetLanguage)

	p.stage(ctx, jobID, "embed_context", progressEmbed)
	ragActive := p.cfg.RAGEnabled && req.UserID != "" && p.contexts != nil

	p.stage(ctx, jobID, "resolve_provider", progressResolve)
	client, err := p.resolver.Resolve(req.Provider, req.UserID)
	if err != nil {
		return err
	}

	p.stage(ctx, jobID, "translate", progressTranslate)
	translations, newPairs, err := p.translateSegments(ctx, jobID, client, segments, tmMatches, sourceLang, req.TargetLanguage, req.UserID, ragActive)
	if err != nil {
		return err
	}

	// Index the freshly produced pairs so later jobs for this user retrieve
	// them as context. Degradable: the translation itself is already done.
	if ragActive && len(newPairs) > 0 {
		if err := p.contexts.AddDocuments(ctx, req.UserID, newPairs, sourceLang, req.TargetLanguage); err != nil {
			p.logger.Warn("context indexing failed", "job_id", jobID, "error", err)
		}
	}

	joined := joinTranslations(translations)

	if p.validator != nil {
		if err := p.validator.Check(joined, req.TargetLanguage); err != nil {
			p.logger.Warn("output language check failed", "job_id", jobID, "error", err)
		}
	}

	p.stage(ctx, jobID, "enhance", progressEnhance)
	enhancerName := p.cfg.WebServiceFor(req.UserID)
	final := p.enhanceResult(ctx, jobID, joined, sourceLang, req.TargetLanguage, enhancerName)

	p.stage(ctx, jobID, "persist", progressPersist)
	outputPath, err := p.artifacts.SaveArtifact(jobID, final, req.OriginalFileName)
	if err != nil {
		return err
	}

	details := &job.ProcessingDetails{
		Provider:        client.Name(),
		ChunkCount:      len(segments),
		TMMatchCount:    len(tmMatches),
		RAGEnabled:      ragActive,
		TokensEstimate:  len(documentText) / 4,
		ConfidenceScore: confidence.Score(sourceLang, req.TargetLanguage, len(segments), len(tmMatches)),
		ElapsedSeconds:  time.Since(start).Seconds(),
		Enhancer:        enhancerName,
	}
	if err := p.jobs.Complete(ctx, jobID, outputPath, details); err != nil {
		return err
	}

	p.artifacts.SaveMetadata(jobID, map[string]any{
		"translation_id":    jobID,
		"source_language":   sourceLang,
		"target_language":   req.TargetLanguage,
		"original_filename": req.OriginalFileName,
		"provider":          client.Name(),
		"enhancer":          enhancerName,
		"chunk_count":       len(segments),
		"tm_match_count":    len(tmMatches),
		"confidence_score":  details.ConfidenceScore,
		"processing_time":   details.ElapsedSeconds,
		"status":            "completed",
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})

	p.stage(ctx, jobID, "complete", 1.0)
	return nil
}

// completeTrivial finishes a job whose document produced zero segments. An
// empty document is a completed job with an empty artifact, not an error.
func (p *Pipeline) completeTrivial(ctx context.Context, jobID string, req Request, sourceLang string, start time.Time) error {
	outputPath, err := p.artifacts.SaveArtifact(jobID, "", req.OriginalFileName)
	if err != nil {
		return err
	}
	details := &job.ProcessingDetails{
		ChunkCount:      0,
		TMMatchCount:    0,
		ConfidenceScore: confidence.Score(sourceLang, req.TargetLanguage, 0, 0),
		ElapsedSeconds:  time.Since(start).Seconds(),
	}
	return p.jobs.Complete(ctx, jobID, outputPath, details)
}

// resolveSourceLanguage returns the explicit source language or detects one.
// Detection failure falls back to "auto" handled as unknown rather than
// failing the job.
func (p *Pipeline) resolveSourceLanguage(requested, documentText string) (string, error) {
	if requested != "" && requested != "auto" {
		return requested, nil
	}
	if p.detector == nil {
		return "", fmt.Errorf("source language detection is not available; specify a source language")
	}
	code, ok := p.detector.DetectCode(documentText)
	if !ok {
		return "en", nil
	}
	return code, nil
}

// lookupMemory finds the best TM match per segment index. The TM store
// swallows embedding failures, so a degraded store simply yields no matches.
func (p *Pipeline) lookupMemory(ctx context.Context, segments []chunker.Segment, sourceLang, targetLang string) map[int]memory.Match {
	matches := make(map[int]memory.Match)
	for _, seg := range segments {
		found, err := p.memory.Search(ctx, seg.Text, sourceLang, targetLang, p.cfg.TMThreshold)
		if err != nil {
			p.logger.Warn("translation memory lookup failed", "segment", seg.Index, "error", err)
			continue
		}
		if len(found) > 0 {
			matches[seg.Index] = found[0]
		}
	}
	return matches
}

// translateSegments runs the per-segment loop: TM hits are reused verbatim,
// everything else goes to the provider and is written back into translation
// memory. Returns translations ordered by segment index plus the pairs the
// LLM produced.
func (p *Pipeline) translateSegments(
	ctx context.Context,
	jobID string,
	client provider.Client,
	segments []chunker.Segment,
	tmMatches map[int]memory.Match,
	sourceLang, targetLang, userID string,
	ragActive bool,
) ([]string, []vecstore.Pair, error) {
	translations := make([]string, len(segments))
	var newPairs []vecstore.Pair
	total := len(segments)

	for i, seg := range segments {
		if match, ok := tmMatches[seg.Index]; ok {
			translations[seg.Index] = match.TargetText
			p.logger.Info("segment served from translation memory",
				"job_id", jobID, "segment", seg.Index, "similarity", match.Similarity)
			p.advanceTranslate(ctx, jobID, i+1, total)
			continue
		}

		contextBlock := ""
		if ragActive {
			docs, err := p.contexts.Search(ctx, userID, seg.Text, sourceLang, targetLang, p.cfg.RAGContextK)
			if err != nil {
				p.logger.Warn("context retrieval failed", "job_id", jobID, "segment", seg.Index, "error", err)
			} else {
				contextBlock = buildContextBlock(docs, seg.Text)
			}
		}

		protected, markers := placeholder.Protect(seg.Text)
		prompt, system := buildPrompt(protected, seg.Context, contextBlock, sourceLang, targetLang, len(markers) > 0)

		out, err := client.Generate(ctx, prompt, system)
		if err != nil {
			return nil, nil, fmt.Errorf("segment %d: %w", seg.Index, err)
		}
		translated := placeholder.Restore(out, markers)

		translations[seg.Index] = translated
		newPairs = append(newPairs, vecstore.Pair{SourceText: seg.Text, TargetText: translated})

		// Write-through: future jobs can short-circuit on this result.
		if _, err := p.memory.Add(ctx, seg.Text, sourceLang, translated, targetLang); err != nil {
			p.logger.Warn("translation memory write failed", "job_id", jobID, "segment", seg.Index, "error", err)
		}

		p.advanceTranslate(ctx, jobID, i+1, total)
	}

	return translations, newPairs, nil
}

func (p *Pipeline) advanceTranslate(ctx context.Context, jobID string, done, total int) {
	progress := progressTranslate + (progressEnhance-progressTranslate)*float64(done)/float64(total)
	if err := p.jobs.UpdateProgress(ctx, jobID, progress); err != nil {
		p.logger.Warn("progress update failed", "job_id", jobID, "error", err)
	}
}

// enhanceResult runs the optional web translation polish pass. Any failure
// degrades to the unenhanced text.
func (p *Pipeline) enhanceResult(ctx context.Context, jobID, text, sourceLang, targetLang, serviceName string) string {
	svc := p.enhancerFor(serviceName)
	enhanced, err := svc.Enhance(ctx, text, sourceLang, targetLang)
	if err != nil {
		p.logger.Warn("enhancement failed, keeping unenhanced text",
			"job_id", jobID, "service", svc.Name(), "error", err)
		return text
	}
	return enhanced
}

// fail moves the job to its failed terminal state with the error text
// captured verbatim and records a best-effort failure metadata record.
func (p *Pipeline) fail(ctx context.Context, jobID string, req Request, cause error) {
	p.logger.Error("job failed", "job_id", jobID, "error", cause)
	if err := p.jobs.Fail(ctx, jobID, cause.Error()); err != nil {
		p.logger.Error("could not record job failure", "job_id", jobID, "error", err)
	}
	p.artifacts.SaveMetadata(jobID, map[string]any{
		"translation_id":    jobID,
		"original_filename": req.OriginalFileName,
		"target_language":   req.TargetLanguage,
		"status":            "failed",
		"error":             cause.Error(),
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}

// stage records a stage boundary: one structured log line plus the progress
// checkpoint.
func (p *Pipeline) stage(ctx context.Context, jobID, name string, progress float64) {
	p.logger.Info("stage", "job_id", jobID, "stage", name, "progress", progress)
	if err := p.jobs.UpdateProgress(ctx, jobID, progress); err != nil {
		p.logger.Warn("progress update failed", "job_id", jobID, "stage", name, "error", err)
	}
}

func sourceLangOrEmpty(requested string) string {
	if requested == "auto" {
		return ""
	}
	return requested
}

// joinTranslations reassembles the document in segment order. Overlap text
// never appears here: it travels only in the prompt context.
func joinTranslations(translations []string) string {
	return strings.Join(translations, "\n\n")
}

// buildContextBlock renders retrieved documents as prompt context, skipping
// any entry that is the segment itself.
func buildContextBlock(docs []vecstore.Document, segmentText string) string {
	var parts []string
	for _, d := range docs {
		if d.SourceText == segmentText {
			continue
		}
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n\n")
}

// buildPrompt renders the translation prompt and system message for one
// segment.
func buildPrompt(text, precedingContext, contextBlock, sourceLang, targetLang string, hasMarkers bool) (string, string) {
	system := fmt.Sprintf(
		"You are a professional translator who specializes in translating from %s to %s. "+
			"Respond with the translation only, no explanations.",
		sourceLang, targetLang)

	var b strings.Builder
	if contextBlock != "" {
		b.WriteString("Here is some related context that may help with the translation:\n")
		b.WriteString(contextBlock)
		b.WriteString("\n\n")
	}
	if precedingContext != "" {
		b.WriteString("The text immediately preceding this passage reads:\n")
		b.WriteString(precedingContext)
		b.WriteString("\n\n")
	}
	b.WriteString("Text to translate:\n")
	b.WriteString(text)
	b.WriteString("\n\nTranslate the above text maintaining the original formatting and meaning as closely as possible. ")
	b.WriteString(fmt.Sprintf("If there are any domain-specific terms, translate them accurately using the appropriate terminology in %s.", targetLang))
	if hasMarkers {
		b.WriteString(" ")
		b.WriteString(placeholder.InstructionHint())
	}
	return b.String(), system
}
