package models

import "time"

// Run statuses. A run with any source failure but some progress is partial,
// never success.
const (
	RunSuccess = "success"
	RunPartial = "partial"
	RunError   = "error"
)

// RunLog is one append-only ingestion run record. Rows are created once at
// run end and never updated or deleted by the pipeline.
type RunLog struct {
	ID           int64     `db:"id" json:"id"`
	JobName      string    `db:"job_name" json:"job_name"`
	Source       string    `db:"source" json:"source"`
	Status       string    `db:"status" json:"status"`
	StartedAt    time.Time `db:"started_at" json:"started_at"`
	FinishedAt   time.Time `db:"finished_at" json:"finished_at"`
	DurationMs   int64     `db:"duration_ms" json:"duration_ms"`
	Fetched      int       `db:"fetched" json:"fetched"`
	Matched      int       `db:"matched" json:"matched"`
	Inserted     int       `db:"inserted" json:"inserted"`
	Skipped      int       `db:"skipped" json:"skipped"`
	Deleted      int       `db:"deleted" json:"deleted"`
	ErrorMessage string    `db:"error_message" json:"error_message,omitempty"`
	Meta         []byte    `db:"meta" json:"-"` // open JSON bag
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
