package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const indexSchema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,        -- 'run', 'analyze', 'apd', 'restitution'
    model TEXT NOT NULL,
    integrator TEXT,
    created_at INTEGER NOT NULL,  -- unix nanoseconds
    paces INTEGER DEFAULT 0,
    converged INTEGER DEFAULT 0,
    final_mrms REAL,
    metadata TEXT NOT NULL     -- JSON RunMetadata
);
CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model, created_at);
`

// Index is a sqlite catalogue of saved runs.
type Index struct {
	db *sql.DB
}

func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open run index: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), indexSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize run index: %w", err)
	}
	return &Index{db: db}, nil
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

func (ix *Index) Put(ctx context.Context, meta RunMetadata) error {
	blob, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = ix.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, kind, model, integrator, created_at, paces, converged, final_mrms, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Kind, meta.Model, meta.Integrator, meta.Timestamp.UnixNano(),
		meta.Paces, meta.Converged, meta.FinalMRMS, string(blob))
	if err != nil {
		return fmt.Errorf("index run %s: %w", meta.ID, err)
	}
	return nil
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Model string
	Kind  string
	Limit int
}

// List returns matching runs, newest first.
func (ix *Index) List(ctx context.Context, f Filter) ([]RunMetadata, error) {
	query := `SELECT metadata FROM runs WHERE (? = '' OR model = ?) AND (? = '' OR kind = ?) ORDER BY created_at DESC`
	args := []any{f.Model, f.Model, f.Kind, f.Kind}
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var meta RunMetadata
		if err := json.Unmarshal([]byte(blob), &meta); err != nil {
			return nil, fmt.Errorf("decode run metadata: %w", err)
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (ix *Index) Delete(ctx context.Context, id string) error {
	_, err := ix.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	return err
}

// Count returns the number of indexed runs.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}

func newRunID(kind, model string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%d", kind, model, now.UnixNano())
}
