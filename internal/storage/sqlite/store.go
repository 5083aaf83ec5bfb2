// Package sqlite stores computed timelines in a SQLite database, one
// MessagePack-encoded row per sample.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chrissnell/zhl16/internal/storage"
	"github.com/chrissnell/zhl16/pkg/profile"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	model      TEXT NOT NULL,
	created_at INTEGER NOT NULL, -- unix nanoseconds, UTC
	constants  BLOB NOT NULL,
	segments   INTEGER NOT NULL,
	runtime    REAL NOT NULL,
	ceiling    REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS samples (
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq     INTEGER NOT NULL,
	payload BLOB NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`

// Store implements storage.TimelineStore
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.SugaredLogger
}

var _ storage.TimelineStore = (*Store)(nil)

// New opens (creating if needed) the run database at path
func New(path string, logger *zap.SugaredLogger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite allows one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create run schema: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{db: db, path: path, logger: logger}, nil
}

// SaveTimeline writes a timeline and all of its samples in one transaction
func (s *Store) SaveTimeline(ctx context.Context, tl *profile.Timeline) error {
	constants, err := encode(tl.Constants)
	if err != nil {
		return fmt.Errorf("encode constants: %w", err)
	}

	var ceiling float64
	if final := tl.Final(); final != nil {
		ceiling = final.Ceiling
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, name, model, created_at, constants, segments, runtime, ceiling) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tl.ID, tl.Name, tl.Model, tl.CreatedAt.UnixNano(), constants,
		len(tl.Samples), tl.Runtime(), ceiling)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", tl.ID, err)
	}

	for _, sample := range tl.Samples {
		payload, err := encode(sample)
		if err != nil {
			return fmt.Errorf("encode sample %d: %w", sample.Seq, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO samples (run_id, seq, payload) VALUES (?, ?, ?)`,
			tl.ID, sample.Seq, payload); err != nil {
			return fmt.Errorf("failed to insert sample %d: %w", sample.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.Debugw("stored timeline", "id", tl.ID, "samples", len(tl.Samples), "path", s.path)
	return nil
}

// GetTimeline loads a timeline with its samples in order
func (s *Store) GetTimeline(ctx context.Context, id string) (*profile.Timeline, error) {
	tl := &profile.Timeline{ID: id}
	var createdAt int64
	var constants []byte

	err := s.db.QueryRowContext(ctx, `SELECT name, model, created_at, constants FROM runs WHERE id = ?`, id).
		Scan(&tl.Name, &tl.Model, &createdAt, &constants)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	tl.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := decode(constants, &tl.Constants); err != nil {
		return nil, fmt.Errorf("decode constants: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM samples WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan sample row: %w", err)
		}
		var sample profile.Sample
		if err := decode(payload, &sample); err != nil {
			return nil, fmt.Errorf("decode sample: %w", err)
		}
		tl.Samples = append(tl.Samples, sample)
	}
	return tl, rows.Err()
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]storage.RunSummary, error) {
	query := `SELECT id, name, model, created_at, segments, runtime, ceiling FROM runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []storage.RunSummary{}
	for rows.Next() {
		var r storage.RunSummary
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.Name, &r.Model, &createdAt, &r.Segments, &r.Runtime, &r.Ceiling); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(b []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
