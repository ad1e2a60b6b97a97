// Package vecstore maintains one embedding index per user, holding past
// translation pairs that are retrieved as stylistic and terminological
// context for in-flight segments.
//
// The index is append-only and long-lived: it persists across jobs so a
// user's translation quality compounds as more of their documents are
// processed. Entries are never used as translations themselves, only as
// prompt context.
package vecstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/valpere/lingodoc/internal/embed"
)

// ErrMissingOwner is returned when a caller passes an empty user id. The
// user id is the isolation boundary; there is no shared index.
var ErrMissingOwner = errors.New("user id is required")

// Document is one indexed translation pair with its retrieval score.
type Document struct {
	ID         string
	Content    string
	SourceText string
	TargetText string
	SourceLang string
	TargetLang string
	Score      float64
}

// Pair is one source/target text pair to index.
type Pair struct {
	SourceText string
	TargetText string
}

// Store is the sqlite-backed per-user context index.
type Store struct {
	db       *sql.DB
	embedder embed.Embedder
	logger   *slog.Logger

	mu sync.Mutex // serializes appends
}

// New opens (creating if needed) the context index database at dbPath.
func New(dbPath string, embedder embed.Embedder, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, embedder: embedder, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS context_documents (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		content TEXT NOT NULL,
		source_text TEXT NOT NULL,
		target_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		embedding BLOB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_context_user ON context_documents(user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AddDocuments appends translation pairs to a user's index. Each pair is
// embedded once at write time; the stored vector serves every later search.
func (s *Store) AddDocuments(ctx context.Context, userID string, pairs []Pair, sourceLang, targetLang string) error {
	if userID == "" {
		return ErrMissingOwner
	}
	if len(pairs) == 0 {
		return nil
	}

	contents := make([]string, len(pairs))
	for i, p := range pairs {
		contents[i] = fmt.Sprintf("Source (%s): %s\nTarget (%s): %s", sourceLang, p.SourceText, targetLang, p.TargetText)
	}

	vectors, err := s.embedder.Embed(ctx, contents)
	if err != nil {
		return fmt.Errorf("failed to embed context documents: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for i, p := range pairs {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO context_documents
			(id, user_id, content, source_text, target_text, source_lang, target_lang, embedding, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), userID, contents[i], p.SourceText, p.TargetText,
			sourceLang, targetLang, encodeVector(vectors[i]), now)
		if err != nil {
			return fmt.Errorf("failed to insert context document: %w", err)
		}
	}
	return nil
}

// Search returns up to k documents from the user's index ranked by cosine
// similarity to query. Language filters are optional; pass "" to skip one.
func (s *Store) Search(ctx context.Context, userID, query, sourceLang, targetLang string, k int) ([]Document, error) {
	if userID == "" {
		return nil, ErrMissingOwner
	}
	if k <= 0 {
		k = 5
	}

	q := `SELECT id, content, source_text, target_text, source_lang, target_lang, embedding
	      FROM context_documents WHERE user_id = ?`
	args := []interface{}{userID}
	if sourceLang != "" {
		q += ` AND source_lang = ?`
		args = append(args, sourceLang)
	}
	if targetLang != "" {
		q += ` AND target_lang = ?`
		args = append(args, targetLang)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	var vectors [][]float32
	for rows.Next() {
		var d Document
		var blob []byte
		if err := rows.Scan(&d.ID, &d.Content, &d.SourceText, &d.TargetText, &d.SourceLang, &d.TargetLang, &blob); err != nil {
			return nil, err
		}
		docs = append(docs, d)
		vectors = append(vectors, decodeVector(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	queryVecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	for i := range docs {
		docs[i].Score = embed.Cosine(queryVecs[0], vectors[i])
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Score > docs[j].Score
	})

	if len(docs) > k {
		docs = docs[:k]
	}
	return docs, nil
}

// Count returns the number of documents in a user's index.
func (s *Store) Count(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrMissingOwner
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM context_documents WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// encodeVector packs a float32 slice as little-endian bytes for BLOB
// storage.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
