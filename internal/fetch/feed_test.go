package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchradar/ingest/internal/config"
)

func rssDocument(itemCount int) string {
	items := ""
	for i := 0; i < itemCount; i++ {
		items += fmt.Sprintf(`
		<item>
			<title>Story %d</title>
			<link>https://example.com/story-%d</link>
			<description>Body %d</description>
			<category>ai</category>
			<pubDate>Mon, 02 Jun 2025 10:0%d:00 GMT</pubDate>
		</item>`, i, i, i, i%10)
	}
	return `<?xml version="1.0"?><rss version="2.0"><channel><title>Test Feed</title>` + items + `</channel></rss>`
}

func TestFeedAdapterFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssDocument(5)))
	}))
	defer srv.Close()

	adapter := NewFeedAdapter(srv.Client())
	records, result := adapter.Fetch(context.Background(), config.Feed{Source: "test-feed", URL: srv.URL})

	require.NoError(t, result.Err)
	assert.Equal(t, 5, result.Fetched)
	require.Len(t, records, 5)
	assert.Equal(t, "Story 0", records[0].Title)
	assert.Equal(t, "https://example.com/story-0", records[0].Link)
	assert.Equal(t, []string{"ai"}, records[0].Categories)
	assert.Equal(t, "test-feed", records[0].Source)
	assert.False(t, records[0].PublishedAt.IsZero())
}

func TestFeedAdapterCapsItems(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssDocument(40)))
	}))
	defer srv.Close()

	adapter := NewFeedAdapter(srv.Client())
	records, result := adapter.Fetch(context.Background(), config.Feed{Source: "busy-feed", URL: srv.URL})

	require.NoError(t, result.Err)
	assert.Equal(t, config.FeedItemCap, result.Fetched)
	assert.Len(t, records, config.FeedItemCap)
	// Feed order is preserved.
	assert.Equal(t, "Story 0", records[0].Title)
}

func TestFeedAdapterFailureIsIsolated(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not xml at all <<<"))
	}))
	defer srv.Close()

	adapter := NewFeedAdapter(srv.Client())
	records, result := adapter.Fetch(context.Background(), config.Feed{Source: "broken-feed", URL: srv.URL})

	assert.Nil(t, records)
	assert.Error(t, result.Err)
	assert.Equal(t, "broken-feed", result.Source)
}
