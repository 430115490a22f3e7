package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchradar/ingest/internal/database"
	"launchradar/ingest/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func newsItem(n int, published time.Time) models.NewsItem {
	return models.NewsItem{
		Title:       fmt.Sprintf("Story %d", n),
		Link:        fmt.Sprintf("https://example.com/story-%d", n),
		Summary:     "summary",
		Source:      "test-feed",
		PublishedAt: published,
		FetchedAt:   published,
	}
}

func TestDedupeByFirstWins(t *testing.T) {
	t.Parallel()

	items := []models.NewsItem{
		{Link: "https://a", Title: "first"},
		{Link: "https://b", Title: "b"},
		{Link: "https://a", Title: "second"},
		{Link: "", Title: "keyless"},
	}

	out := DedupeBy(items, func(i models.NewsItem) string { return i.Link })

	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Title)
	assert.Equal(t, "b", out[1].Title)
}

func TestInsertNewsSkipsExisting(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	first := []models.NewsItem{newsItem(0, now), newsItem(1, now)}
	inserted, err := s.InsertNews(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// Re-sending one known link plus one new one inserts only the new one.
	second := []models.NewsItem{newsItem(1, now), newsItem(2, now)}
	inserted, err = s.InsertNews(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	total, err := s.Count(ctx, "news_items")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestExistingKeys(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.InsertNews(ctx, []models.NewsItem{newsItem(0, now), newsItem(1, now)})
	require.NoError(t, err)

	existing, err := s.ExistingKeys(ctx, "news_items", "link", []string{
		"https://example.com/story-0",
		"https://example.com/story-9",
	})
	require.NoError(t, err)

	assert.Contains(t, existing, "https://example.com/story-0")
	assert.NotContains(t, existing, "https://example.com/story-9")
}

func TestUpsertTopicsPropagatesLookupError(t *testing.T) {
	t.Parallel()
	db, err := database.NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := New(db)
	ctx := context.Background()

	_, err = db.Exec("DROP TABLE topics")
	require.NoError(t, err)

	// A broken existence check must fail the batch, not misreport the
	// row as freshly inserted.
	inserted, updated, err := s.UpsertTopics(ctx, []models.Topic{{PHID: "t1", Name: "AI", Slug: "ai"}})
	require.Error(t, err)
	assert.ErrorContains(t, err, "check topic")
	assert.Zero(t, inserted)
	assert.Zero(t, updated)
}

func TestUpsertTopicsRefreshesMutableFields(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	topics := []models.Topic{{PHID: "t1", Name: "AI", Slug: "ai", FollowersCount: 100}}
	inserted, updated, err := s.UpsertTopics(ctx, topics)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 0, updated)

	topics[0].FollowersCount = 250
	inserted, updated, err = s.UpsertTopics(ctx, topics)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 1, updated)

	var followers int
	require.NoError(t, s.db.GetContext(ctx, &followers,
		"SELECT followers_count FROM topics WHERE ph_id = 't1'"))
	assert.Equal(t, 250, followers)

	total, err := s.Count(ctx, "topics")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestUpsertTopProductsCompositeKey(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()
	expires := time.Now().UTC().AddDate(0, 0, 7)

	row := models.TopProduct{
		PHID: "p1", SnapshotKey: "2025-06-02T12:00:00Z", Rank: 1,
		Name: "Thing", VotesCount: 10, ExpiresAt: expires,
	}
	_, err := s.UpsertTopProducts(ctx, []models.TopProduct{row})
	require.NoError(t, err)

	// Same product under a different snapshot key is a new row; the same
	// composite key only refreshes counters.
	row.SnapshotKey = "2025-06-02T12:05:00Z"
	row.VotesCount = 25
	_, err = s.UpsertTopProducts(ctx, []models.TopProduct{row})
	require.NoError(t, err)

	_, err = s.UpsertTopProducts(ctx, []models.TopProduct{row})
	require.NoError(t, err)

	total, err := s.Count(ctx, "top_products")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestReplaceTrendingIsAuthoritative(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()

	first := []models.TrendingProduct{
		{Name: "Old A", Source: "producthunt"},
		{Name: "Old B", Source: "producthunt"},
		{Name: "Old C", Source: "producthunt"},
	}
	inserted, removed, err := s.ReplaceTrending(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)
	assert.Equal(t, 0, removed)

	second := []models.TrendingProduct{{Name: "New A", Source: "producthunt", VotesCount: 5}}
	inserted, removed, err = s.ReplaceTrending(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 3, removed)

	rows, err := s.ListTrending(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "New A", rows[0].Name)
}

func TestUpsertAirdropsPreservesSummary(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	drop := models.Airdrop{
		Title: "Alpha Drop", SourceURL: "https://airdrops.io/airdrop/alpha",
		Status: "confirmed", AISummary: "short take", Source: "airdrops.io", ImportedAt: now,
	}
	inserted, err := s.UpsertAirdrops(ctx, []models.Airdrop{drop})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// A later scrape updates status but must not clobber the stored summary.
	drop.Status = "hot"
	drop.AISummary = "regenerated"
	inserted, err = s.UpsertAirdrops(ctx, []models.Airdrop{drop})
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	var got models.Airdrop
	require.NoError(t, s.db.GetContext(ctx, &got,
		"SELECT * FROM airdrops WHERE source_url = ?", drop.SourceURL))
	assert.Equal(t, "hot", got.Status)
	assert.Equal(t, "short take", got.AISummary)
}

func TestSweepNewsAgeThenOverflow(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	var items []models.NewsItem
	// Two expired rows, six fresh ones.
	items = append(items, newsItem(0, now.AddDate(0, 0, -20)))
	items = append(items, newsItem(1, now.AddDate(0, 0, -15)))
	for i := 2; i < 8; i++ {
		items = append(items, newsItem(i, now.Add(-time.Duration(i)*time.Hour)))
	}
	_, err := s.InsertNews(ctx, items)
	require.NoError(t, err)

	result, err := s.SweepNews(ctx, 14, 4, now)
	require.NoError(t, err)

	assert.Equal(t, 2, result.DeletedByAge)
	assert.Equal(t, 2, result.DeletedByOverflow)

	remaining, err := s.Count(ctx, "news_items")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)

	// Oldest-first means the newest rows survive.
	var links []string
	require.NoError(t, s.db.SelectContext(ctx, &links,
		"SELECT link FROM news_items ORDER BY published_at DESC"))
	assert.Equal(t, "https://example.com/story-2", links[0])
}

func TestSweepNewsUnderLimitsIsNoop(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := s.InsertNews(ctx, []models.NewsItem{newsItem(0, now), newsItem(1, now)})
	require.NoError(t, err)

	result, err := s.SweepNews(ctx, 14, 500, now)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total())
}

func TestReapExpiredSnapshots(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	rows := []models.TopProduct{
		{PHID: "p1", SnapshotKey: "2025-06-01T00:00:00Z", Rank: 1, Name: "Stale", ExpiresAt: now.AddDate(0, 0, -1)},
		{PHID: "p2", SnapshotKey: "2025-06-09T00:00:00Z", Rank: 1, Name: "Fresh", ExpiresAt: now.AddDate(0, 0, 6)},
	}
	_, err := s.UpsertTopProducts(ctx, rows)
	require.NoError(t, err)

	reaped, err := s.ReapExpiredSnapshots(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	remaining, err := s.TopProductsBySnapshot(ctx, "2025-06-09T00:00:00Z")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Fresh", remaining[0].Name)
}

func TestListNewsCursorPagination(t *testing.T) {
	t.Parallel()
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	var items []models.NewsItem
	for i := 0; i < 5; i++ {
		items = append(items, newsItem(i, base.Add(time.Duration(i)*time.Minute)))
	}
	_, err := s.InsertNews(ctx, items)
	require.NoError(t, err)

	since := base.Add(-time.Hour)
	page1, err := s.ListNews(ctx, 2, &since, nil, nil)
	require.NoError(t, err)
	require.Len(t, page1, 2)

	last := page1[len(page1)-1]
	page2, err := s.ListNews(ctx, 10, nil, &last.PublishedAt, &last.ID)
	require.NoError(t, err)
	require.Len(t, page2, 3)

	// No overlap between pages.
	assert.Equal(t, "https://example.com/story-0", page1[0].Link)
	assert.Equal(t, "https://example.com/story-2", page2[0].Link)
}
