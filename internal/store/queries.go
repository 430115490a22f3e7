package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"launchradar/ingest/internal/models"
)

// ListNews retrieves news rows for the read API. Ordering is ascending
// (published_at, id) so cursor pagination sees each row exactly once. Either
// since or the cursor pair must be set.
func (s *Store) ListNews(ctx context.Context, limit int, since *time.Time, cursorTS *time.Time, cursorID *int64) ([]models.NewsItem, error) {
	var items []models.NewsItem
	var query string
	var args []any

	const baseQuery = `SELECT * FROM news_items `
	const orderBy = ` ORDER BY published_at ASC, id ASC LIMIT ?`

	switch {
	case cursorTS != nil && cursorID != nil:
		query = baseQuery + `WHERE (published_at > ?) OR (published_at = ? AND id > ?)` + orderBy
		args = append(args, cursorTS.UTC(), cursorTS.UTC(), *cursorID, limit)
	case since != nil:
		query = baseQuery + `WHERE published_at > ?` + orderBy
		args = append(args, since.UTC(), limit)
	default:
		return nil, fmt.Errorf("either 'since' or cursor parameters must be provided")
	}

	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.NewsItem{}, nil
		}
		return nil, fmt.Errorf("query news items: %w", err)
	}
	return items, nil
}

// LatestSnapshotKey returns the newest snapshot generation key, or "" when
// no snapshots exist.
func (s *Store) LatestSnapshotKey(ctx context.Context) (string, error) {
	var key string
	err := s.db.GetContext(ctx, &key, "SELECT COALESCE(MAX(snapshot_key), '') FROM top_products")
	if err != nil {
		return "", fmt.Errorf("query latest snapshot key: %w", err)
	}
	return key, nil
}

// TopProductsBySnapshot returns one snapshot generation in rank order.
func (s *Store) TopProductsBySnapshot(ctx context.Context, key string) ([]models.TopProduct, error) {
	var rows []models.TopProduct
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM top_products WHERE snapshot_key = ? ORDER BY rank ASC", key)
	if err != nil {
		return nil, fmt.Errorf("query snapshot %s: %w", key, err)
	}
	return rows, nil
}

// ListTrending returns the current trending set ordered by votes.
func (s *Store) ListTrending(ctx context.Context) ([]models.TrendingProduct, error) {
	var rows []models.TrendingProduct
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM trending_products ORDER BY votes_count DESC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("query trending products: %w", err)
	}
	return rows, nil
}

// ListCoins returns market rows in market-cap order.
func (s *Store) ListCoins(ctx context.Context, limit int) ([]models.Coin, error) {
	var rows []models.Coin
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM coins ORDER BY market_cap_rank ASC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query coins: %w", err)
	}
	return rows, nil
}

// ListAirdrops returns listings newest-import first.
func (s *Store) ListAirdrops(ctx context.Context, limit int) ([]models.Airdrop, error) {
	var rows []models.Airdrop
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM airdrops ORDER BY imported_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query airdrops: %w", err)
	}
	return rows, nil
}
