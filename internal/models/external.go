package models

import "time"

// ExternalItem is an append-only record harvested from HackerNews, GitHub
// search, or the raw RSS pipeline. Existing rows are never overwritten so any
// manual curation survives later runs.
type ExternalItem struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Link        string    `db:"link" json:"link"`
	Source      string    `db:"source" json:"source"`
	Status      string    `db:"status" json:"status"`
	Popularity  int       `db:"popularity" json:"popularity"`
	Tags        []byte    `db:"tags" json:"-"` // JSON array of strings
	RawData     []byte    `db:"raw_data" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
