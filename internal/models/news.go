package models

import "time"

// NewsItem represents a row in the news_items table. The canonical link is
// the natural key: unique within the collection, never rewritten after insert.
type NewsItem struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Link        string    `db:"link" json:"link"`
	Summary     string    `db:"summary" json:"summary"`
	AISummary   string    `db:"ai_summary" json:"ai_summary,omitempty"`
	Source      string    `db:"source" json:"source"`
	ImageURL    string    `db:"image_url" json:"image_url,omitempty"`
	Categories  []byte    `db:"categories" json:"-"` // JSON array of strings
	PublishedAt time.Time `db:"published_at" json:"published_at"`
	FetchedAt   time.Time `db:"fetched_at" json:"fetched_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
