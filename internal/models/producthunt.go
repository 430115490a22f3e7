package models

import "time"

// Topic is one Product Hunt topic from the catalog, refreshed weekly.
type Topic struct {
	ID             int64     `db:"id" json:"id"`
	PHID           string    `db:"ph_id" json:"ph_id"`
	Name           string    `db:"name" json:"name"`
	Slug           string    `db:"slug" json:"slug"`
	FollowersCount int       `db:"followers_count" json:"followers_count"`
	PostsCount     int       `db:"posts_count" json:"posts_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Product is a refreshable per-topic product row; mutable fields are
// overwritten on every upsert, ph_id is the natural key.
type Product struct {
	ID            int64     `db:"id" json:"id"`
	PHID          string    `db:"ph_id" json:"ph_id"`
	Name          string    `db:"name" json:"name"`
	Slug          string    `db:"slug" json:"slug"`
	Tagline       string    `db:"tagline" json:"tagline"`
	Description   string    `db:"description" json:"description"`
	Website       string    `db:"website" json:"website"`
	URL           string    `db:"url" json:"url"`
	VotesCount    int       `db:"votes_count" json:"votes_count"`
	CommentsCount int       `db:"comments_count" json:"comments_count"`
	DailyRank     int       `db:"daily_rank" json:"daily_rank"`
	Thumbnail     string    `db:"thumbnail" json:"thumbnail,omitempty"`
	TopicSlug     string    `db:"topic_slug" json:"topic_slug"`
	Topics        []byte    `db:"topics" json:"-"` // JSON [{name,slug}]
	FeaturedAt    string    `db:"featured_at" json:"featured_at,omitempty"`
	PostedAt      string    `db:"posted_at" json:"posted_at,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// TopProduct is one ranked row of a time-windowed snapshot. Uniqueness is the
// composite (ph_id, snapshot_key); expires_at lets the reaper drop old
// snapshots without consulting run history.
type TopProduct struct {
	ID            int64     `db:"id" json:"id"`
	PHID          string    `db:"ph_id" json:"ph_id"`
	SnapshotKey   string    `db:"snapshot_key" json:"snapshot_key"`
	Rank          int       `db:"rank" json:"rank"`
	Name          string    `db:"name" json:"name"`
	Slug          string    `db:"slug" json:"slug"`
	Tagline       string    `db:"tagline" json:"tagline"`
	Website       string    `db:"website" json:"website"`
	URL           string    `db:"url" json:"url"`
	VotesCount    int       `db:"votes_count" json:"votes_count"`
	CommentsCount int       `db:"comments_count" json:"comments_count"`
	Thumbnail     string    `db:"thumbnail" json:"thumbnail,omitempty"`
	PostedAfter   string    `db:"posted_after" json:"posted_after"`
	PostedBefore  string    `db:"posted_before" json:"posted_before"`
	ExpiresAt     time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// TrendingProduct rows are replaced wholesale each sync; every run is
// authoritative for the whole table.
type TrendingProduct struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Tagline    string    `db:"tagline" json:"tagline"`
	Website    string    `db:"website" json:"website"`
	VotesCount int       `db:"votes_count" json:"votes_count"`
	Source     string    `db:"source" json:"source"`
	SourceDate string    `db:"source_date" json:"source_date"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
