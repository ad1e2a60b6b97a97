package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLRegistry is the durable Registry, sharing the sqlite database with the
// other stores. Writes are serialized per process; sqlite serializes across
// processes.
type SQLRegistry struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLRegistry opens (creating if needed) the jobs table at dbPath.
func NewSQLRegistry(dbPath string) (*SQLRegistry, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	r := &SQLRegistry{db: db}
	if err := r.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return r, nil
}

func (r *SQLRegistry) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL DEFAULT '',
		source_file TEXT NOT NULL,
		original_file_name TEXT NOT NULL,
		target_language TEXT NOT NULL,
		source_language TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		progress REAL NOT NULL DEFAULT 0,
		download_url TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		details TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_owner ON jobs(owner);
	`
	_, err := r.db.Exec(schema)
	return err
}

func (r *SQLRegistry) Create(ctx context.Context, j *Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, owner, source_file, original_file_name, target_language,
			source_language, status, progress, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Owner, j.SourceFile, j.OriginalFileName, j.TargetLanguage,
		j.SourceLanguage, string(j.Status), j.Progress, j.CreatedAt, j.UpdatedAt)
	return err
}

func (r *SQLRegistry) Get(ctx context.Context, id string) (*Job, error) {
	j := &Job{}
	var status, detailsJSON string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner, source_file, original_file_name, target_language,
			source_language, status, progress, download_url, error_message,
			COALESCE(details, ''), created_at, updated_at
		FROM jobs WHERE id = ?`, id).
		Scan(&j.ID, &j.Owner, &j.SourceFile, &j.OriginalFileName, &j.TargetLanguage,
			&j.SourceLanguage, &status, &j.Progress, &j.DownloadURL, &j.ErrorMessage,
			&detailsJSON, &j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	j.Status = Status(status)
	if detailsJSON != "" {
		var d ProcessingDetails
		if err := json.Unmarshal([]byte(detailsJSON), &d); err == nil {
			j.Details = &d
		}
	}
	return j, nil
}

func (r *SQLRegistry) MarkProcessing(ctx context.Context, id string) error {
	return r.updateStatus(ctx, id, StatusProcessing, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`,
			string(StatusProcessing), time.Now(), id)
		return err
	})
}

func (r *SQLRegistry) UpdateProgress(ctx context.Context, id string, progress float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// MAX keeps progress non-decreasing under any interleaving
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET progress = MAX(progress, ?), updated_at = ? WHERE id = ?`,
		progress, time.Now(), id)
	return err
}

func (r *SQLRegistry) SetSourceLanguage(ctx context.Context, id, lang string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET source_language = ?, updated_at = ? WHERE id = ?`,
		lang, time.Now(), id)
	return err
}

func (r *SQLRegistry) Complete(ctx context.Context, id, downloadURL string, details *ProcessingDetails) error {
	detailsJSON, _ := json.Marshal(details)
	return r.updateStatus(ctx, id, StatusCompleted, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE jobs SET status = ?, progress = 1.0, download_url = ?, details = ?, updated_at = ?
			WHERE id = ?`,
			string(StatusCompleted), downloadURL, string(detailsJSON), time.Now(), id)
		return err
	})
}

func (r *SQLRegistry) Fail(ctx context.Context, id, errorMessage string) error {
	return r.updateStatus(ctx, id, StatusFailed, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE jobs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
			string(StatusFailed), errorMessage, time.Now(), id)
		return err
	})
}

// updateStatus wraps a status write in a transaction that first checks the
// transition is monotonic, so a terminal job can never regress or flip
// between completed and failed.
func (r *SQLRegistry) updateStatus(ctx context.Context, id string, next Status, write func(*sql.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("job %s not found", id)
	}
	if err != nil {
		return err
	}
	if cur := Status(current); cur.Terminal() || statusRank[next] < statusRank[cur] {
		return fmt.Errorf("illegal status transition %s -> %s", current, next)
	}

	if err := write(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLRegistry) List(ctx context.Context, owner string) ([]*Job, error) {
	q := `SELECT id FROM jobs`
	var args []interface{}
	if owner != "" {
		q += ` WHERE owner = ?`
		args = append(args, owner)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
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

	jobs := make([]*Job, 0, len(ids))
	for _, id := range ids {
		j, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if j != nil {
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}

func (r *SQLRegistry) Delete(ctx context.Context, id, requestingOwner string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE id = ? AND owner = ?`, id, requestingOwner)
	if err != nil {
		return false, nil // fail closed: callers treat false as not-found
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, nil
	}
	return n > 0, nil
}

func (r *SQLRegistry) Close() error {
	return r.db.Close()
}
