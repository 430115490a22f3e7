package jobs

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"launchradar/ingest/internal/models"
	"launchradar/ingest/internal/normalize"
	"launchradar/ingest/internal/store"
)

// RunNews polls every configured feed, filters for relevance, and appends
// the new items. Individual feed failures degrade the run to partial; the
// surviving feeds are still ingested.
func (r *Runner) RunNews(ctx context.Context) error {
	started := r.now().UTC()

	var (
		records  []models.NewsItem
		fetched  int
		okFeeds  int
		failed   int
		skipped  int
		errParts []string
	)

	for _, feed := range r.sources.Feeds {
		raw, result := r.feeds.Fetch(ctx, feed)
		if result.Err != nil {
			failed++
			errParts = append(errParts, feed.Source+": "+result.Err.Error())
			log.Warn().Err(result.Err).Str("feed", feed.Source).Int("attempts", result.Attempts).Msg("Feed fetch failed")
			continue
		}
		okFeeds++
		fetched += result.Fetched

		for _, item := range raw {
			title := normalize.Text(item.Title)
			link := normalize.CanonicalLink(item.Link)
			if title == "" || link == "" {
				skipped++
				continue
			}
			if !r.filter.Match(item.Title, item.Summary, strings.Join(item.Categories, " ")) {
				skipped++
				continue
			}
			records = append(records, models.NewsItem{
				Title:       title,
				Link:        link,
				Summary:     normalize.Text(normalize.StripHTML(item.Summary)),
				Source:      item.Source,
				ImageURL:    item.ImageURL,
				Categories:  metaJSON(item.Categories),
				PublishedAt: item.PublishedAt.UTC(),
				FetchedAt:   started,
			})
		}
	}

	// matched counts items past in-batch dedup; duplicates are skips.
	preDedupe := len(records)
	records = store.DedupeBy(records, func(i models.NewsItem) string { return i.Link })
	skipped += preDedupe - len(records)
	matched := len(records)

	inserted := 0
	storeFailed := false
	var runErr error
	if len(records) > 0 {
		fresh, err := r.onlyNewNews(ctx, records)
		if err != nil {
			runErr = err
		} else {
			for i := range fresh {
				if fresh[i].AISummary == "" && r.summarizer.Enabled() {
					fresh[i].AISummary = r.summarizer.Summarize(ctx, fresh[i].Title, fresh[i].Summary)
				}
			}
			inserted, runErr = r.store.InsertNews(ctx, fresh)
		}
	}
	if runErr != nil {
		storeFailed = true
		errParts = append(errParts, runErr.Error())
	} else {
		// Items whose link was already stored from an earlier run.
		skipped += matched - inserted
	}

	deleted := 0
	sweep, err := r.store.SweepNews(ctx, r.cfg.RetentionDays, r.cfg.MaxNewsRecords, r.now())
	if err != nil {
		storeFailed = true
		errParts = append(errParts, err.Error())
		log.Error().Err(err).Msg("News retention sweep failed")
		if runErr == nil {
			runErr = err
		}
	} else {
		deleted = sweep.Total()
	}

	finished := r.now().UTC()
	r.record(ctx, models.RunLog{
		JobName:      JobNews,
		Status:       runStatus(storeFailed, failed, okFeeds),
		StartedAt:    started,
		FinishedAt:   finished,
		Fetched:      fetched,
		Matched:      matched,
		Inserted:     inserted,
		Skipped:      skipped,
		Deleted:      deleted,
		ErrorMessage: strings.Join(errParts, "; "),
	})

	log.Info().
		Int("fetched", fetched).
		Int("matched", matched).
		Int("inserted", inserted).
		Int("deleted", deleted).
		Int("failed_feeds", failed).
		Msg("News run finished")
	return runErr
}

// onlyNewNews drops items whose canonical link is already stored, so the AI
// summarizer is only invoked for rows that will actually insert.
func (r *Runner) onlyNewNews(ctx context.Context, records []models.NewsItem) ([]models.NewsItem, error) {
	keys := make([]string, len(records))
	for i, rec := range records {
		keys[i] = rec.Link
	}
	existing, err := r.store.ExistingKeys(ctx, "news_items", "link", keys)
	if err != nil {
		return nil, err
	}

	fresh := records[:0]
	for _, rec := range records {
		if _, seen := existing[rec.Link]; seen {
			continue
		}
		fresh = append(fresh, rec)
	}
	return fresh, nil
}
