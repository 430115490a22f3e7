// Package runlog records and reads the append-only run history. Every job
// writes exactly one row per run attempt, including skipped and failed ones,
// so the history doubles as the cooldown clock.
package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"launchradar/ingest/internal/database"
	"launchradar/ingest/internal/models"
)

// ErrNoRuns is returned when no run history exists for the requested scope.
var ErrNoRuns = errors.New("no runs recorded")

// Recorder writes and queries run_logs rows.
type Recorder struct {
	db *database.DB
}

// New creates a Recorder over an open database.
func New(db *database.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one run row. Duration is derived from the timestamps when
// not set by the caller.
func (r *Recorder) Record(ctx context.Context, entry models.RunLog) error {
	if entry.DurationMs == 0 && !entry.FinishedAt.IsZero() {
		entry.DurationMs = entry.FinishedAt.Sub(entry.StartedAt).Milliseconds()
	}
	meta := entry.Meta
	if len(meta) == 0 {
		meta = []byte("{}")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO run_logs (job_name, source, status, started_at, finished_at, duration_ms,
			fetched, matched, inserted, skipped, deleted, error_message, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.JobName, entry.Source, entry.Status,
		entry.StartedAt.UTC(), entry.FinishedAt.UTC(), entry.DurationMs,
		entry.Fetched, entry.Matched, entry.Inserted, entry.Skipped, entry.Deleted,
		entry.ErrorMessage, string(meta))
	if err != nil {
		return fmt.Errorf("record run for %s: %w", entry.JobName, err)
	}
	return nil
}

// Latest returns the most recent run for a job, optionally narrowed to one
// source. Returns ErrNoRuns when the job has never run.
func (r *Recorder) Latest(ctx context.Context, jobName, source string) (models.RunLog, error) {
	var entry models.RunLog
	var err error
	if source != "" {
		err = r.db.GetContext(ctx, &entry, `
			SELECT * FROM run_logs WHERE job_name = ? AND source = ?
			ORDER BY started_at DESC, id DESC LIMIT 1`, jobName, source)
	} else {
		err = r.db.GetContext(ctx, &entry, `
			SELECT * FROM run_logs WHERE job_name = ?
			ORDER BY started_at DESC, id DESC LIMIT 1`, jobName)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.RunLog{}, ErrNoRuns
	}
	if err != nil {
		return models.RunLog{}, fmt.Errorf("query latest run for %s: %w", jobName, err)
	}
	return entry, nil
}

// ListFilter narrows a run history listing. Zero values mean "any".
type ListFilter struct {
	JobName string
	Status  string
	Limit   int
	Offset  int
}

// List returns run rows newest first.
func (r *Recorder) List(ctx context.Context, filter ListFilter) ([]models.RunLog, error) {
	query := "SELECT * FROM run_logs WHERE 1=1"
	var args []any

	if filter.JobName != "" {
		query += " AND job_name = ?"
		args = append(args, filter.JobName)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	var entries []models.RunLog
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return entries, nil
}

// JobSummary aggregates one job's runs inside the summary window.
// LastRunAt stays a string: aggregate expressions carry no declared column
// type, so the sqlite driver hands them back as text.
type JobSummary struct {
	JobName   string `db:"job_name" json:"job_name"`
	Runs      int    `db:"runs" json:"runs"`
	Successes int    `db:"successes" json:"successes"`
	Partials  int    `db:"partials" json:"partials"`
	Errors    int    `db:"errors" json:"errors"`
	Inserted  int    `db:"inserted" json:"inserted"`
	LastRunAt string `db:"last_run_at" json:"last_run_at"`
}

// Summary aggregates per-job run counts over the trailing window.
func (r *Recorder) Summary(ctx context.Context, window time.Duration, now time.Time) ([]JobSummary, error) {
	cutoff := now.UTC().Add(-window)

	var rows []JobSummary
	err := r.db.SelectContext(ctx, &rows, `
		SELECT job_name,
			COUNT(*) AS runs,
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END) AS successes,
			SUM(CASE WHEN status = 'partial' THEN 1 ELSE 0 END) AS partials,
			SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END) AS errors,
			SUM(inserted) AS inserted,
			MAX(started_at) AS last_run_at
		FROM run_logs
		WHERE started_at >= ?
		GROUP BY job_name
		ORDER BY job_name ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("summarize runs: %w", err)
	}
	return rows, nil
}
