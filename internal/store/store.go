// Package store is the single write path to the database: batch dedup/upsert
// in its three modes (append-only, refreshable, replace-all-by-key) plus the
// retention sweeper. After any batch completes, a collection holds at most
// one row per natural key.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"launchradar/ingest/internal/database"
	"launchradar/ingest/internal/models"
)

// Store wraps the database with collection-level batch operations.
type Store struct {
	db *database.DB
}

// New creates a Store over an open database.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// DedupeBy removes in-batch duplicates by natural key; the first occurrence
// wins and input order is preserved. Items with an empty key are dropped.
func DedupeBy[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// ExistingKeys returns which of the given natural keys already exist in
// table's keyColumn.
func (s *Store) ExistingKeys(ctx context.Context, table, keyColumn string, keys []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(keys))
	if len(keys) == 0 {
		return existing, nil
	}

	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (?)", keyColumn, table, keyColumn), keys)
	if err != nil {
		return nil, fmt.Errorf("build existing-keys query for %s: %w", table, err)
	}

	var found []string
	if err := s.db.SelectContext(ctx, &found, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query existing keys in %s: %w", table, err)
	}
	for _, k := range found {
		existing[k] = struct{}{}
	}
	return existing, nil
}

// Count returns the number of rows in table.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// InsertNews appends new news items; rows whose link already exists are left
// untouched. Returns how many rows were actually inserted.
func (s *Store) InsertNews(ctx context.Context, items []models.NewsItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin news insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO news_items (title, link, summary, ai_summary, source, image_url, categories, published_at, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(link) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare news insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, item := range items {
		res, err := stmt.ExecContext(ctx,
			item.Title, item.Link, item.Summary, item.AISummary, item.Source,
			item.ImageURL, jsonOrDefault(item.Categories, "[]"), item.PublishedAt.UTC(), item.FetchedAt.UTC())
		if err != nil {
			return inserted, fmt.Errorf("insert news item %s: %w", item.Link, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit news insert: %w", err)
	}
	return inserted, nil
}

// InsertExternal appends new external items by link; existing rows keep any
// manual curation.
func (s *Store) InsertExternal(ctx context.Context, items []models.ExternalItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin external insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO external_items (title, description, link, source, status, popularity, tags, raw_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(link) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare external insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, item := range items {
		res, err := stmt.ExecContext(ctx,
			item.Title, item.Description, item.Link, item.Source, item.Status,
			item.Popularity, jsonOrDefault(item.Tags, "[]"), jsonOrDefault(item.RawData, "{}"))
		if err != nil {
			return inserted, fmt.Errorf("insert external item %s: %w", item.Link, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit external insert: %w", err)
	}
	return inserted, nil
}

// UpsertTopics refreshes the topic catalog: mutable fields are set on match,
// the whole row on first sight.
func (s *Store) UpsertTopics(ctx context.Context, topics []models.Topic) (inserted, updated int, err error) {
	if len(topics) == 0 {
		return 0, 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin topics upsert: %w", err)
	}
	defer tx.Rollback()

	for _, topic := range topics {
		var existingID int64
		err := tx.GetContext(ctx, &existingID, "SELECT id FROM topics WHERE ph_id = ?", topic.PHID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return inserted, updated, fmt.Errorf("check topic %s: %w", topic.Slug, err)
		}
		isNew := errors.Is(err, sql.ErrNoRows)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO topics (ph_id, name, slug, followers_count, posts_count, updated_at)
			VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(ph_id) DO UPDATE SET
				name = excluded.name,
				slug = excluded.slug,
				followers_count = excluded.followers_count,
				posts_count = excluded.posts_count,
				updated_at = CURRENT_TIMESTAMP`,
			topic.PHID, topic.Name, topic.Slug, topic.FollowersCount, topic.PostsCount)
		if err != nil {
			return inserted, updated, fmt.Errorf("upsert topic %s: %w", topic.Slug, err)
		}
		if isNew {
			inserted++
		} else {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit topics upsert: %w", err)
	}
	return inserted, updated, nil
}

// UpsertProducts refreshes per-topic products keyed by ph_id.
func (s *Store) UpsertProducts(ctx context.Context, products []models.Product) (inserted, updated int, err error) {
	if len(products) == 0 {
		return 0, 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin products upsert: %w", err)
	}
	defer tx.Rollback()

	for _, p := range products {
		var existingID int64
		err := tx.GetContext(ctx, &existingID, "SELECT id FROM products WHERE ph_id = ?", p.PHID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return inserted, updated, fmt.Errorf("check product %s: %w", p.PHID, err)
		}
		isNew := errors.Is(err, sql.ErrNoRows)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO products (ph_id, name, slug, tagline, description, website, url,
				votes_count, comments_count, daily_rank, thumbnail, topic_slug, topics,
				featured_at, posted_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(ph_id) DO UPDATE SET
				name = excluded.name,
				slug = excluded.slug,
				tagline = excluded.tagline,
				description = excluded.description,
				website = excluded.website,
				url = excluded.url,
				votes_count = excluded.votes_count,
				comments_count = excluded.comments_count,
				daily_rank = excluded.daily_rank,
				thumbnail = excluded.thumbnail,
				topic_slug = excluded.topic_slug,
				topics = excluded.topics,
				featured_at = excluded.featured_at,
				posted_at = excluded.posted_at,
				updated_at = CURRENT_TIMESTAMP`,
			p.PHID, p.Name, p.Slug, p.Tagline, p.Description, p.Website, p.URL,
			p.VotesCount, p.CommentsCount, p.DailyRank, p.Thumbnail, p.TopicSlug,
			jsonOrDefault(p.Topics, "[]"), p.FeaturedAt, p.PostedAt)
		if err != nil {
			return inserted, updated, fmt.Errorf("upsert product %s: %w", p.PHID, err)
		}
		if isNew {
			inserted++
		} else {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit products upsert: %w", err)
	}
	return inserted, updated, nil
}

// UpsertTopProducts writes one snapshot generation under its composite
// (ph_id, snapshot_key) uniqueness.
func (s *Store) UpsertTopProducts(ctx context.Context, rows []models.TopProduct) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin snapshot upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO top_products (ph_id, snapshot_key, rank, name, slug, tagline, website, url,
			votes_count, comments_count, thumbnail, posted_after, posted_before, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ph_id, snapshot_key) DO UPDATE SET
			rank = excluded.rank,
			votes_count = excluded.votes_count,
			comments_count = excluded.comments_count`)
	if err != nil {
		return 0, fmt.Errorf("prepare snapshot upsert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.PHID, row.SnapshotKey, row.Rank, row.Name, row.Slug, row.Tagline,
			row.Website, row.URL, row.VotesCount, row.CommentsCount, row.Thumbnail,
			row.PostedAfter, row.PostedBefore, row.ExpiresAt.UTC())
		if err != nil {
			return 0, fmt.Errorf("upsert snapshot row %s/%s: %w", row.PHID, row.SnapshotKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot upsert: %w", err)
	}
	return len(rows), nil
}

// ReplaceTrending deletes the prior trending set and inserts the new one in
// a single transaction: each run is authoritative for the whole table.
func (s *Store) ReplaceTrending(ctx context.Context, rows []models.TrendingProduct) (inserted, removed int, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin trending replace: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM trending_products")
	if err != nil {
		return 0, 0, fmt.Errorf("clear trending_products: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		removed = int(n)
	}

	for _, row := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trending_products (name, tagline, website, votes_count, source, source_date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			row.Name, row.Tagline, row.Website, row.VotesCount, row.Source, row.SourceDate)
		if err != nil {
			return 0, removed, fmt.Errorf("insert trending row %s: %w", row.Name, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit trending replace: %w", err)
	}
	return inserted, removed, nil
}

// UpsertCoins refreshes market rows keyed by coin_id.
func (s *Store) UpsertCoins(ctx context.Context, coins []models.Coin) (int, error) {
	if len(coins) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin coins upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO coins (coin_id, symbol, name, image, current_price, market_cap,
			total_volume, price_change_24h, market_cap_rank, last_updated, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(coin_id) DO UPDATE SET
			symbol = excluded.symbol,
			name = excluded.name,
			image = excluded.image,
			current_price = excluded.current_price,
			market_cap = excluded.market_cap,
			total_volume = excluded.total_volume,
			price_change_24h = excluded.price_change_24h,
			market_cap_rank = excluded.market_cap_rank,
			last_updated = excluded.last_updated,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return 0, fmt.Errorf("prepare coins upsert: %w", err)
	}
	defer stmt.Close()

	for _, coin := range coins {
		_, err := stmt.ExecContext(ctx,
			coin.CoinID, coin.Symbol, coin.Name, coin.Image, coin.CurrentPrice,
			coin.MarketCap, coin.TotalVolume, coin.PriceChange24h, coin.MarketCapRank,
			coin.LastUpdated.UTC())
		if err != nil {
			return 0, fmt.Errorf("upsert coin %s: %w", coin.CoinID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit coins upsert: %w", err)
	}
	return len(coins), nil
}

// UpsertAirdrops refreshes scraped listings keyed by source_url. The AI
// summary is written only on first insert so later scrapes cannot clobber
// manual edits. Returns how many rows were newly inserted.
func (s *Store) UpsertAirdrops(ctx context.Context, items []models.Airdrop) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin airdrops upsert: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, item := range items {
		var existingID int64
		err := tx.GetContext(ctx, &existingID, "SELECT id FROM airdrops WHERE source_url = ?", item.SourceURL)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return inserted, fmt.Errorf("check airdrop %s: %w", item.SourceURL, err)
		}
		isNew := errors.Is(err, sql.ErrNoRows)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO airdrops (title, description, source_url, logo, status, ai_summary, source, imported_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(source_url) DO UPDATE SET
				title = excluded.title,
				description = excluded.description,
				logo = excluded.logo,
				status = excluded.status,
				imported_at = excluded.imported_at,
				updated_at = CURRENT_TIMESTAMP`,
			item.Title, item.Description, item.SourceURL, item.Logo, item.Status,
			item.AISummary, item.Source, item.ImportedAt.UTC())
		if err != nil {
			return inserted, fmt.Errorf("upsert airdrop %s: %w", item.SourceURL, err)
		}
		if isNew {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit airdrops upsert: %w", err)
	}
	return inserted, nil
}

func jsonOrDefault(raw []byte, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	return string(raw)
}

// logSweep is shared by the retention paths for uniform logging.
func logSweep(table string, deleted int64, reason string) {
	if deleted > 0 {
		log.Info().Str("table", table).Int64("deleted", deleted).Str("reason", reason).Msg("Retention sweep")
	}
}
