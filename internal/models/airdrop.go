package models

import "time"

// Airdrop is a scraped listing keyed by its canonical source URL. Mutable
// fields refresh on every scrape; the AI summary is written once on first
// insert so manual edits are preserved.
type Airdrop struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	SourceURL   string    `db:"source_url" json:"source_url"`
	Logo        string    `db:"logo" json:"logo,omitempty"`
	Status      string    `db:"status" json:"status,omitempty"` // confirmed | hot | updated | ""
	AISummary   string    `db:"ai_summary" json:"ai_summary,omitempty"`
	Source      string    `db:"source" json:"source"`
	ImportedAt  time.Time `db:"imported_at" json:"imported_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
