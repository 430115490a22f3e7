// Package fetch contains the per-source-family adapters. Every adapter
// returns a bounded, ordered batch of raw records plus a typed outcome;
// errors never cross this boundary as panics.
package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	"launchradar/ingest/internal/config"
)

const feedUserAgent = "LaunchRadar-NewsBot/1.0"

// FeedRecord is one raw RSS/Atom entry before normalization.
type FeedRecord struct {
	Title       string
	Link        string
	Summary     string
	Categories  []string
	ImageURL    string
	PublishedAt time.Time
	Source      string
}

// FeedResult reports the outcome for a single feed. A failed feed carries
// its error here; it never aborts sibling feeds.
type FeedResult struct {
	Source   string
	URL      string
	Attempts int
	Fetched  int
	Err      error
}

// FeedAdapter polls RSS/Atom feeds.
type FeedAdapter struct {
	parser *gofeed.Parser
	cap    int
}

// NewFeedAdapter builds an adapter with a bounded per-feed item cap.
func NewFeedAdapter(client *http.Client) *FeedAdapter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = feedUserAgent

	return &FeedAdapter{parser: parser, cap: config.FeedItemCap}
}

// Fetch parses one feed with retry and returns at most the cap's worth of
// records in feed order.
func (a *FeedAdapter) Fetch(ctx context.Context, feed config.Feed) ([]FeedRecord, FeedResult) {
	result := FeedResult{Source: feed.Source, URL: feed.URL}

	var parsed *gofeed.Feed
	result.Attempts, result.Err = withRetry(ctx, func() error {
		var err error
		parsed, err = a.parser.ParseURLWithContext(feed.URL, ctx)
		return err
	})
	if result.Err != nil {
		log.Warn().Err(result.Err).Str("source", feed.Source).Int("attempts", result.Attempts).Msg("Feed fetch failed")
		return nil, result
	}

	items := parsed.Items
	if len(items) > a.cap {
		items = items[:a.cap]
	}
	result.Fetched = len(items)

	records := make([]FeedRecord, 0, len(items))
	for _, item := range items {
		records = append(records, feedRecord(item, feed.Source))
	}
	return records, result
}

func feedRecord(item *gofeed.Item, source string) FeedRecord {
	rec := FeedRecord{
		Title:      item.Title,
		Link:       item.Link,
		Summary:    item.Description,
		Categories: item.Categories,
		Source:     source,
	}
	if rec.Link == "" {
		rec.Link = item.GUID
	}
	if rec.Summary == "" {
		rec.Summary = item.Content
	}
	if item.PublishedParsed != nil {
		rec.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		rec.PublishedAt = *item.UpdatedParsed
	} else {
		rec.PublishedAt = time.Now().UTC()
	}
	if item.Image != nil {
		rec.ImageURL = item.Image.URL
	} else if len(item.Enclosures) > 0 {
		rec.ImageURL = item.Enclosures[0].URL
	}
	return rec
}
