package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"launchradar/ingest/internal/config"
	"launchradar/ingest/internal/models"
	"launchradar/ingest/internal/normalize"
	"launchradar/ingest/internal/store"
)

// RunSources harvests the secondary upstreams: HackerNews top stories and
// GitHub repository search, plus the raw feed pipeline, into the append-only
// external_items collection. Each upstream fails independently.
func (r *Runner) RunSources(ctx context.Context) error {
	started := r.now().UTC()

	var (
		items    []models.ExternalItem
		fetched  int
		okSrc    int
		failed   int
		skipped  int
		errParts []string
	)

	stories, err := r.rest.TopStories(ctx, config.HackerNewsMaxStories)
	if err != nil {
		failed++
		errParts = append(errParts, "hackernews: "+err.Error())
		log.Warn().Err(err).Msg("HackerNews fetch failed")
	} else {
		okSrc++
		fetched += len(stories)
		for _, story := range stories {
			if !r.filter.Match(story.Title, story.Text) {
				skipped++
				continue
			}
			link := story.URL
			if link == "" {
				link = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", story.ID)
			}
			items = append(items, models.ExternalItem{
				Title:       normalize.Text(story.Title),
				Description: normalize.Text(normalize.StripHTML(story.Text)),
				Link:        normalize.CanonicalLink(link),
				Source:      "hackernews",
				Status:      "pending",
				Popularity:  story.Score,
				RawData:     metaJSON(story),
			})
		}
	}

	repos, err := r.rest.SearchRepos(ctx, r.sources.GithubQuery)
	if err != nil {
		failed++
		errParts = append(errParts, "github: "+err.Error())
		log.Warn().Err(err).Msg("GitHub search failed")
	} else {
		okSrc++
		fetched += len(repos.Items)
		for _, repo := range repos.Items {
			items = append(items, models.ExternalItem{
				Title:       repo.FullName,
				Description: normalize.Text(repo.Description),
				Link:        normalize.CanonicalLink(repo.HTMLURL),
				Source:      "github",
				Status:      "pending",
				Popularity:  repo.Stars,
				Tags:        metaJSON([]string{repo.Language}),
				RawData:     metaJSON(repo),
			})
		}
	}

	feedOK := 0
	for _, feed := range r.sources.Feeds {
		raw, result := r.feeds.Fetch(ctx, feed)
		if result.Err != nil {
			failed++
			errParts = append(errParts, feed.Source+": "+result.Err.Error())
			continue
		}
		feedOK++
		fetched += result.Fetched
		for _, rec := range raw {
			title := normalize.Text(rec.Title)
			link := normalize.CanonicalLink(rec.Link)
			if title == "" || link == "" {
				skipped++
				continue
			}
			if !r.filter.Match(rec.Title, rec.Summary, strings.Join(rec.Categories, " ")) {
				skipped++
				continue
			}
			items = append(items, models.ExternalItem{
				Title:       title,
				Description: normalize.Text(normalize.StripHTML(rec.Summary)),
				Link:        link,
				Source:      "rss:" + rec.Source,
				Status:      "pending",
				Tags:        metaJSON(rec.Categories),
			})
		}
	}
	if feedOK > 0 {
		okSrc++
	}

	// matched counts items past in-batch dedup; duplicates are skips.
	preDedupe := len(items)
	items = store.DedupeBy(items, func(i models.ExternalItem) string { return i.Link })
	skipped += preDedupe - len(items)
	matched := len(items)

	storeFailed := false
	inserted, insertErr := r.store.InsertExternal(ctx, items)
	if insertErr != nil {
		storeFailed = true
		errParts = append(errParts, insertErr.Error())
	} else {
		skipped += matched - inserted
	}

	r.record(ctx, models.RunLog{
		JobName:      JobSources,
		Status:       runStatus(storeFailed, failed, okSrc),
		StartedAt:    started,
		FinishedAt:   r.now().UTC(),
		Fetched:      fetched,
		Matched:      matched,
		Inserted:     inserted,
		Skipped:      skipped,
		ErrorMessage: strings.Join(errParts, "; "),
	})

	log.Info().
		Int("fetched", fetched).
		Int("matched", matched).
		Int("inserted", inserted).
		Msg("Sources run finished")
	return insertErr
}
