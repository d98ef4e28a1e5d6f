// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package history keeps a sqlite log of finished renders.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const schemaVersion = 1

// Status values stored with each entry.
const (
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
	StatusCancelled = "cancelled"
)

var ErrNotFound = errors.New("history entry not found")

// Entry is one finished render or batch project.
type Entry struct {
	ID         int64     `json:"id"`
	RenderID   string    `json:"render_id,omitempty"`
	BatchID    string    `json:"batch_id,omitempty"`
	Project    string    `json:"project"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	OutputPath string    `json:"output_path,omitempty"`
	DurationS  float64   `json:"duration_s"`
	SizeBytes  int64     `json:"size_bytes"`
	Elapsed    float64   `json:"elapsed_s"`
	Degraded   []string  `json:"degraded,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Project string
	Status  string
	BatchID string
	Limit   int
}

// Store is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the history database at path.
func Open(path string, cfg DBConfig) (*Store, error) {
	db, err := openDB(path, cfg)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS renders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		render_id TEXT NOT NULL DEFAULT '',
		batch_id TEXT NOT NULL DEFAULT '',
		project TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		output_path TEXT NOT NULL DEFAULT '',
		duration_s REAL NOT NULL DEFAULT 0,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		elapsed_s REAL NOT NULL DEFAULT 0,
		degraded TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		error_kind TEXT NOT NULL DEFAULT '',
		started_at_ms INTEGER NOT NULL,
		finished_at_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_renders_finished ON renders(finished_at_ms);
	CREATE INDEX IF NOT EXISTS idx_renders_project ON renders(project);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// Record inserts e and returns its row id.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = e.FinishedAt
	}
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO renders (render_id, batch_id, project, mode, status, output_path,
		duration_s, size_bytes, elapsed_s, degraded, error, error_kind, started_at_ms, finished_at_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RenderID, e.BatchID, e.Project, e.Mode, e.Status, e.OutputPath,
		e.DurationS, e.SizeBytes, e.Elapsed, strings.Join(e.Degraded, ","), e.Error, e.ErrorKind,
		e.StartedAt.UnixMilli(), e.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("history: record %s: %w", e.Project, err)
	}
	return res.LastInsertId()
}

const selectColumns = `SELECT id, render_id, batch_id, project, mode, status, output_path,
	duration_s, size_bytes, elapsed_s, degraded, error, error_kind, started_at_ms, finished_at_ms FROM renders`

// List returns entries newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Project != "" {
		where, args = append(where, "project = ?"), append(args, f.Project)
	}
	if f.Status != "" {
		where, args = append(where, "status = ?"), append(args, f.Status)
	}
	if f.BatchID != "" {
		where, args = append(where, "batch_id = ?"), append(args, f.BatchID)
	}
	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY finished_at_ms DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns the entry with the given row id.
func (s *Store) Get(ctx context.Context, id int64) (Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// Counts returns the number of entries per status.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM renders GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("history: counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// Prune deletes entries finished before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM renders WHERE finished_at_ms < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e                   Entry
		degraded            string
		startedMS, finishMS int64
	)
	err := row.Scan(&e.ID, &e.RenderID, &e.BatchID, &e.Project, &e.Mode, &e.Status, &e.OutputPath,
		&e.DurationS, &e.SizeBytes, &e.Elapsed, &degraded, &e.Error, &e.ErrorKind, &startedMS, &finishMS)
	if err != nil {
		return Entry{}, err
	}
	if degraded != "" {
		e.Degraded = strings.Split(degraded, ",")
	}
	e.StartedAt = time.UnixMilli(startedMS)
	e.FinishedAt = time.UnixMilli(finishMS)
	return e, nil
}
