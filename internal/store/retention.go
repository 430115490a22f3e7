package store

import (
	"context"
	"fmt"
	"time"

	"launchradar/ingest/internal/config"
)

// SweepResult reports what a retention pass removed and why.
type SweepResult struct {
	DeletedByAge      int `json:"deleted_by_age"`
	DeletedByOverflow int `json:"deleted_by_overflow"`
}

// Total is the combined number of rows removed.
func (r SweepResult) Total() int {
	return r.DeletedByAge + r.DeletedByOverflow
}

// SweepNews applies the two-stage news retention policy: first delete rows
// published before the age cutoff, then if the table still exceeds maxRecords
// delete the oldest overflow. Order is oldest published_at first with id as
// the tiebreak, so repeated sweeps are deterministic.
func (s *Store) SweepNews(ctx context.Context, retentionDays, maxRecords int, now time.Time) (SweepResult, error) {
	var result SweepResult

	cutoff := now.UTC().AddDate(0, 0, -retentionDays)
	res, err := s.db.ExecContext(ctx, "DELETE FROM news_items WHERE published_at < ?", cutoff)
	if err != nil {
		return result, fmt.Errorf("age sweep: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		result.DeletedByAge = int(n)
		logSweep("news_items", n, "age")
	}

	remaining, err := s.Count(ctx, "news_items")
	if err != nil {
		return result, err
	}
	if remaining <= maxRecords {
		return result, nil
	}

	res, err = s.db.ExecContext(ctx, `
		DELETE FROM news_items WHERE id IN (
			SELECT id FROM news_items ORDER BY published_at ASC, id ASC LIMIT ?
		)`, remaining-maxRecords)
	if err != nil {
		return result, fmt.Errorf("overflow sweep: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		result.DeletedByOverflow = int(n)
		logSweep("news_items", n, "overflow")
	}
	return result, nil
}

// ReapExpiredSnapshots removes snapshot rows whose expiry has passed.
func (s *Store) ReapExpiredSnapshots(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM top_products WHERE expires_at < ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("reap expired snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	logSweep("top_products", n, "expired")
	return int(n), nil
}

// CleanupSnapshots trims up to config.SnapshotCleanupCount of the oldest
// snapshot rows that do not belong to the given current generation. Runs
// after every snapshot write so the table shrinks gradually instead of
// growing until the expiry reaper catches up.
func (s *Store) CleanupSnapshots(ctx context.Context, currentKey string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM top_products WHERE id IN (
			SELECT id FROM top_products WHERE snapshot_key != ?
			ORDER BY snapshot_key ASC, id ASC LIMIT ?
		)`, currentKey, config.SnapshotCleanupCount)
	if err != nil {
		return 0, fmt.Errorf("cleanup snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	logSweep("top_products", n, "rotation")
	return int(n), nil
}

// CleanupLowVoteProducts removes up to count of the least-voted product rows.
// Ran weekly to keep the per-topic catalog from accreting dead entries.
func (s *Store) CleanupLowVoteProducts(ctx context.Context, count int) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM products WHERE id IN (
			SELECT id FROM products ORDER BY votes_count ASC, id ASC LIMIT ?
		)`, count)
	if err != nil {
		return 0, fmt.Errorf("cleanup products: %w", err)
	}
	n, _ := res.RowsAffected()
	logSweep("products", n, "low-votes")
	return int(n), nil
}
