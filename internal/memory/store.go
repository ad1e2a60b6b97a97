// Package memory persists and searches reusable source/target segment pairs
// (translation memory).
//
// Units are keyed by id and hold one text variant per language. Re-importing
// an existing unit id merges variants and refreshes last_updated; nothing is
// ever deleted by an import. Search embeds the query and every eligible
// candidate with the multilingual embedder and ranks by cosine similarity.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/lingodoc/internal/embed"
)

// Match is one translation-memory hit, ranked by Similarity.
type Match struct {
	SourceText string  `json:"source_text"`
	TargetText string  `json:"target_text"`
	Similarity float64 `json:"similarity"`
	UnitID     string  `json:"unit_id"`
}

// Unit is a stored translation unit with its language variants.
type Unit struct {
	ID          string
	Variants    map[string]string
	Metadata    map[string]string
	CreatedAt   time.Time
	LastUpdated time.Time
}

// Stats summarises the store contents.
type Stats struct {
	Units    int
	Variants int
}

// Store is the sqlite-backed translation memory.
type Store struct {
	db       *sql.DB
	embedder embed.Embedder
	logger   *slog.Logger

	// serializes writers; sqlite handles its own locking but merge-by-id
	// needs read-then-write atomicity across two tables
	mu sync.Mutex
}

// New opens (creating if needed) the translation memory database at dbPath.
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
	CREATE TABLE IF NOT EXISTS tm_units (
		id TEXT PRIMARY KEY,
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS tm_variants (
		unit_id TEXT NOT NULL,
		lang TEXT NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (unit_id, lang),
		FOREIGN KEY (unit_id) REFERENCES tm_units(id)
	);

	CREATE INDEX IF NOT EXISTS idx_tm_variants_lang ON tm_variants(lang);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Upsert inserts a new unit or merges language variants into an existing
// one. Pass unitID == "" to mint a fresh id. Merging never removes existing
// variants; a variant for an already-present language is overwritten and
// last_updated refreshed. Returns the unit id.
func (s *Store) Upsert(ctx context.Context, unitID string, variants map[string]string, metadata map[string]string) (string, error) {
	if len(variants) == 0 {
		return "", fmt.Errorf("unit requires at least one language variant")
	}
	if unitID == "" {
		unitID = uuid.New().String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tm_units WHERE id = ?)`, unitID).Scan(&exists)
	if err != nil {
		return "", err
	}

	now := time.Now()
	if exists {
		if _, err := tx.ExecContext(ctx, `UPDATE tm_units SET last_updated = ? WHERE id = ?`, now, unitID); err != nil {
			return "", err
		}
	} else {
		metaJSON, _ := json.Marshal(metadata)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tm_units (id, metadata, created_at, last_updated) VALUES (?, ?, ?, ?)`,
			unitID, string(metaJSON), now, now); err != nil {
			return "", err
		}
	}

	for lang, text := range variants {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO tm_variants (unit_id, lang, text) VALUES (?, ?, ?)`,
			unitID, lang, normalizeText(text)); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return unitID, nil
}

// Add is the write-through path used after each freshly generated segment
// translation: it stores a new unit with exactly the source and target
// variants.
func (s *Store) Add(ctx context.Context, sourceText, sourceLang, targetText, targetLang string) (string, error) {
	return s.Upsert(ctx, "", map[string]string{
		sourceLang: sourceText,
		targetLang: targetText,
	}, nil)
}

// Search returns matches whose source-variant similarity to queryText is at
// least threshold, sorted descending by similarity. Only units carrying both
// the source and the target language variant are eligible.
//
// An embedding failure degrades to an empty match list: translation proceeds
// without memory assistance rather than failing the job.
func (s *Store) Search(ctx context.Context, queryText, sourceLang, targetLang string, threshold float64) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, src.text, tgt.text
		FROM tm_units u
		JOIN tm_variants src ON src.unit_id = u.id AND src.lang = ?
		JOIN tm_variants tgt ON tgt.unit_id = u.id AND tgt.lang = ?`,
		sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids, sources, targets []string
	for rows.Next() {
		var id, src, tgt string
		if err := rows.Scan(&id, &src, &tgt); err != nil {
			return nil, err
		}
		ids = append(ids, id)
		sources = append(sources, src)
		targets = append(targets, tgt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	texts := make([]string, 0, len(sources)+1)
	texts = append(texts, normalizeText(queryText))
	texts = append(texts, sources...)

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		s.logger.Warn("translation memory search degraded: embedding failed",
			"error", err, "candidates", len(ids))
		return nil, nil
	}

	query := vectors[0]
	var matches []Match
	for i := range ids {
		score := embed.Cosine(query, vectors[i+1])
		if score >= threshold {
			matches = append(matches, Match{
				SourceText: sources[i],
				TargetText: targets[i],
				Similarity: score,
				UnitID:     ids[i],
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches, nil
}

// Get returns a unit by id, or nil when absent.
func (s *Store) Get(ctx context.Context, unitID string) (*Unit, error) {
	var metaJSON string
	u := &Unit{ID: unitID, Variants: make(map[string]string)}

	err := s.db.QueryRowContext(ctx,
		`SELECT metadata, created_at, last_updated FROM tm_units WHERE id = ?`, unitID).
		Scan(&metaJSON, &u.CreatedAt, &u.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if metaJSON != "" {
		_ = json.Unmarshal([]byte(metaJSON), &u.Metadata)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT lang, text FROM tm_variants WHERE unit_id = ?`, unitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var lang, text string
		if err := rows.Scan(&lang, &text); err != nil {
			return nil, err
		}
		u.Variants[lang] = text
	}
	return u, rows.Err()
}

// List returns all units ordered by most recently updated.
func (s *Store) List(ctx context.Context) ([]Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM tm_units ORDER BY last_updated DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	units := make([]Unit, 0, len(ids))
	for _, id := range ids {
		u, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if u != nil {
			units = append(units, *u)
		}
	}
	return units, nil
}

// Stats returns unit and variant counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tm_units`).Scan(&st.Units); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tm_variants`).Scan(&st.Variants); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization for
// consistent comparison across imports and lookups.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
