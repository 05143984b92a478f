package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run is one invocation of generate or compile.
type Run struct {
	ID         string
	Kind       string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	Processed  int
	Succeeded  int
	Failed     int
	Skipped    int
	// Note is free text, e.g. the data file and slice of the run.
	Note string
}

// Counts are the totals recorded when a run finishes.
type Counts struct {
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
}

// Entry is one record or file outcome within a run.
type Entry struct {
	RunID       string
	RecordID    string
	PromptType  string
	Filename    string
	Status      string
	Error       string
	Attempts    int
	Latency     time.Duration
	ContentHash string
	CreatedAt   time.Time
}

// BeginRun inserts r with status running.
func (s *Store) BeginRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, kind, started_at, status, note)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Kind, formatTime(r.StartedAt), RunRunning, r.Note,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	return nil
}

// FinishRun stores the totals and final status of a run.
func (s *Store) FinishRun(ctx context.Context, id, status string, finished time.Time, c Counts) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, status = ?, processed = ?, succeeded = ?, failed = ?, skipped = ?
		WHERE id = ?`,
		formatTime(finished), status, c.Processed, c.Succeeded, c.Failed, c.Skipped, id,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// AddEntry appends an outcome to a run.
func (s *Store) AddEntry(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (run_id, record_id, prompt_type, filename, status, error, attempts, latency_ms, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.RecordID, e.PromptType, e.Filename, e.Status, e.Error,
		e.Attempts, e.Latency.Milliseconds(), e.ContentHash, formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("recording entry for run %s: %w", e.RunID, err)
	}
	return nil
}

const runColumns = `id, kind, started_at, COALESCE(finished_at, ''), status, processed, succeeded, failed, skipped, note`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var started, finished string
	if err := row.Scan(&r.ID, &r.Kind, &started, &finished, &r.Status,
		&r.Processed, &r.Succeeded, &r.Failed, &r.Skipped, &r.Note); err != nil {
		return Run{}, err
	}
	r.StartedAt = parseTime(started)
	if finished != "" {
		r.FinishedAt = parseTime(finished)
	}
	return r, nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}
	return r, nil
}

// Runs returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Entries returns the outcomes of a run in insertion order.
func (s *Store) Entries(ctx context.Context, runID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, record_id, prompt_type, filename, status, error, attempts, latency_ms, content_hash, created_at
		FROM entries WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var latency int64
		var created string
		if err := rows.Scan(&e.RunID, &e.RecordID, &e.PromptType, &e.Filename, &e.Status,
			&e.Error, &e.Attempts, &latency, &e.ContentHash, &created); err != nil {
			return nil, err
		}
		e.Latency = time.Duration(latency) * time.Millisecond
		e.CreatedAt = parseTime(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LastStatus returns the most recent status recorded for filename across
// all runs, and false when the file was never recorded.
func (s *Store) LastStatus(ctx context.Context, filename string) (string, bool, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM entries WHERE filename = ? ORDER BY id DESC LIMIT 1`, filename,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}
