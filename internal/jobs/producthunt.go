package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"launchradar/ingest/internal/config"
	"launchradar/ingest/internal/fetch"
	"launchradar/ingest/internal/models"
	"launchradar/ingest/internal/store"
)

// recordDisabled writes the run row for a job whose upstream credential is
// missing. The run counts as partial so dashboards show the gap.
func (r *Runner) recordDisabled(ctx context.Context, jobName string, started time.Time) {
	log.Warn().Str("job", jobName).Msg("Product Hunt token not configured, skipping")
	r.record(ctx, models.RunLog{
		JobName:      jobName,
		Source:       "producthunt",
		Status:       models.RunPartial,
		StartedAt:    started,
		FinishedAt:   r.now().UTC(),
		ErrorMessage: "producthunt token not configured",
	})
}

// RunSnapshot captures the current top-of-day board as one snapshot
// generation, then rotates out old generations.
func (r *Runner) RunSnapshot(ctx context.Context) error {
	started := r.now().UTC()
	if !r.graph.Enabled() {
		r.recordDisabled(ctx, JobSnapshot, started)
		return nil
	}

	result, err := r.graph.TopOfDay(ctx, config.SnapshotLimit, started, false)
	if err != nil {
		r.record(ctx, models.RunLog{
			JobName: JobSnapshot, Source: "producthunt", Status: models.RunError,
			StartedAt: started, FinishedAt: r.now().UTC(), ErrorMessage: err.Error(),
		})
		return err
	}

	key := fetch.SnapshotKey(started)
	expires := started.AddDate(0, 0, config.SnapshotExpiryDays)

	rows := make([]models.TopProduct, 0, len(result.Posts))
	for i, post := range result.Posts {
		rows = append(rows, models.TopProduct{
			PHID:          post.ID,
			SnapshotKey:   key,
			Rank:          i + 1,
			Name:          post.Name,
			Slug:          post.Slug,
			Tagline:       post.Tagline,
			Website:       post.Website,
			URL:           post.URL,
			VotesCount:    post.VotesCount,
			CommentsCount: post.CommentsCount,
			Thumbnail:     post.Thumbnail.URL,
			PostedAfter:   result.Window.PostedAfter,
			PostedBefore:  result.Window.PostedBefore,
			ExpiresAt:     expires,
		})
	}

	written, err := r.store.UpsertTopProducts(ctx, rows)
	if err == nil {
		if _, cErr := r.store.CleanupSnapshots(ctx, key); cErr != nil {
			log.Error().Err(cErr).Msg("Snapshot rotation failed")
		}
		if _, rErr := r.store.ReapExpiredSnapshots(ctx, started); rErr != nil {
			log.Error().Err(rErr).Msg("Snapshot reap failed")
		}
	}

	status := models.RunSuccess
	errMsg := ""
	if err != nil {
		status = models.RunError
		errMsg = err.Error()
	}
	r.record(ctx, models.RunLog{
		JobName: JobSnapshot, Source: "producthunt", Status: status,
		StartedAt: started, FinishedAt: r.now().UTC(),
		Fetched: len(result.Posts), Inserted: written, ErrorMessage: errMsg,
		Meta: metaJSON(map[string]any{
			"snapshot_key":  key,
			"fallback_used": result.FallbackUsed,
			"pages":         result.Pages,
		}),
	})

	log.Info().Str("snapshot_key", key).Int("posts", len(result.Posts)).
		Bool("fallback", result.FallbackUsed).Msg("Snapshot run finished")
	return err
}

// RunTrending syncs the daily board extras: newest posts are folded into the
// product catalog insert-only, and the trending set is replaced wholesale.
func (r *Runner) RunTrending(ctx context.Context) error {
	started := r.now().UTC()
	if !r.graph.Enabled() {
		r.recordDisabled(ctx, JobTrending, started)
		return nil
	}

	var errParts []string
	failed, okCalls := 0, 0
	storeFailed := false

	fetched, inserted := 0, 0
	newest, err := r.graph.NewestPosts(ctx)
	if err != nil {
		failed++
		errParts = append(errParts, "newest: "+err.Error())
	} else {
		okCalls++
		fetched += len(newest)
		n, err := r.insertNewProducts(ctx, newest)
		if err != nil {
			storeFailed = true
			errParts = append(errParts, err.Error())
		} else {
			inserted += n
		}
	}

	trending, err := r.graph.Trending(ctx)
	if err != nil {
		failed++
		errParts = append(errParts, "trending: "+err.Error())
	} else {
		okCalls++
		if len(trending) > config.TrendingFetchCount {
			trending = trending[:config.TrendingFetchCount]
		}
		fetched += len(trending)

		rows := make([]models.TrendingProduct, 0, len(trending))
		day := started.Format("2006-01-02")
		for _, post := range trending {
			rows = append(rows, models.TrendingProduct{
				Name:       post.Name,
				Tagline:    post.Tagline,
				Website:    post.Website,
				VotesCount: post.VotesCount,
				Source:     "producthunt",
				SourceDate: day,
			})
		}
		n, removed, err := r.store.ReplaceTrending(ctx, rows)
		if err != nil {
			storeFailed = true
			errParts = append(errParts, err.Error())
		} else {
			inserted += n
			log.Info().Int("inserted", n).Int("removed", removed).Msg("Trending set replaced")
		}
	}

	r.record(ctx, models.RunLog{
		JobName: JobTrending, Source: "producthunt",
		Status:    runStatus(storeFailed, failed, okCalls),
		StartedAt: started, FinishedAt: r.now().UTC(),
		Fetched: fetched, Inserted: inserted,
		ErrorMessage: strings.Join(errParts, "; "),
	})
	if storeFailed || (failed > 0 && okCalls == 0) {
		return fmt.Errorf("trending sync failed: %s", strings.Join(errParts, "; "))
	}
	return nil
}

// RunWeeklyRefresh rebuilds the topic catalog and the per-topic product
// rows, pausing between topics to stay inside upstream rate limits.
func (r *Runner) RunWeeklyRefresh(ctx context.Context) error {
	started := r.now().UTC()
	if !r.graph.Enabled() {
		r.recordDisabled(ctx, JobWeeklyRefresh, started)
		return nil
	}

	var errParts []string
	failed, okCalls := 0, 0
	storeFailed := false
	fetched, inserted := 0, 0

	topics, err := r.graph.Topics(ctx)
	if err != nil {
		failed++
		errParts = append(errParts, "topics: "+err.Error())
	} else {
		okCalls++
		fetched += len(topics)

		rows := make([]models.Topic, 0, len(topics))
		for _, t := range topics {
			rows = append(rows, models.Topic{
				PHID: t.ID, Name: t.Name, Slug: t.Slug,
				FollowersCount: t.FollowersCount, PostsCount: t.PostsCount,
			})
		}
		n, updated, err := r.store.UpsertTopics(ctx, rows)
		if err != nil {
			storeFailed = true
			errParts = append(errParts, err.Error())
		} else {
			inserted += n
			log.Info().Int("new", n).Int("updated", updated).Msg("Topic catalog refreshed")
		}
	}

	for _, topic := range topics {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delay):
		}

		posts, err := r.graph.ProductsByTopic(ctx, topic.Slug)
		if err != nil {
			failed++
			errParts = append(errParts, topic.Slug+": "+err.Error())
			continue
		}
		okCalls++
		fetched += len(posts)

		products := make([]models.Product, 0, len(posts))
		for _, post := range posts {
			products = append(products, productFromNode(post, topic.Slug))
		}
		n, _, err := r.store.UpsertProducts(ctx, products)
		if err != nil {
			storeFailed = true
			errParts = append(errParts, topic.Slug+": "+err.Error())
			continue
		}
		inserted += n
	}

	r.record(ctx, models.RunLog{
		JobName: JobWeeklyRefresh, Source: "producthunt",
		Status:    runStatus(storeFailed, failed, okCalls),
		StartedAt: started, FinishedAt: r.now().UTC(),
		Fetched: fetched, Inserted: inserted,
		ErrorMessage: strings.Join(errParts, "; "),
	})

	log.Info().Int("topics", len(topics)).Int("fetched", fetched).
		Int("inserted", inserted).Msg("Weekly refresh finished")
	if storeFailed {
		return fmt.Errorf("weekly refresh failed: %s", strings.Join(errParts, "; "))
	}
	return nil
}

// RunWeeklyCleanup trims the least-voted product rows.
func (r *Runner) RunWeeklyCleanup(ctx context.Context) error {
	started := r.now().UTC()

	deleted, err := r.store.CleanupLowVoteProducts(ctx, config.WeeklyCleanupCount)
	status := models.RunSuccess
	errMsg := ""
	if err != nil {
		status = models.RunError
		errMsg = err.Error()
	}

	r.record(ctx, models.RunLog{
		JobName: JobWeeklyCleanup, Status: status,
		StartedAt: started, FinishedAt: r.now().UTC(),
		Deleted: deleted, ErrorMessage: errMsg,
	})
	return err
}

// insertNewProducts stores only the posts whose ph_id is not yet known,
// keeping the newest-posts feed insert-only.
func (r *Runner) insertNewProducts(ctx context.Context, posts []fetch.GraphNode) (int, error) {
	keys := make([]string, len(posts))
	for i, p := range posts {
		keys[i] = p.ID
	}
	existing, err := r.store.ExistingKeys(ctx, "products", "ph_id", keys)
	if err != nil {
		return 0, err
	}

	var fresh []models.Product
	for _, post := range posts {
		if _, seen := existing[post.ID]; seen {
			continue
		}
		fresh = append(fresh, productFromNode(post, ""))
	}
	fresh = store.DedupeBy(fresh, func(p models.Product) string { return p.PHID })

	inserted, _, err := r.store.UpsertProducts(ctx, fresh)
	return inserted, err
}

func productFromNode(post fetch.GraphNode, topicSlug string) models.Product {
	topics := make([]map[string]string, 0, len(post.Topics.Edges))
	for _, edge := range post.Topics.Edges {
		topics = append(topics, map[string]string{"name": edge.Node.Name, "slug": edge.Node.Slug})
	}

	return models.Product{
		PHID:          post.ID,
		Name:          post.Name,
		Slug:          post.Slug,
		Tagline:       post.Tagline,
		Description:   post.Description,
		Website:       post.Website,
		URL:           post.URL,
		VotesCount:    post.VotesCount,
		CommentsCount: post.CommentsCount,
		DailyRank:     post.DailyRank,
		Thumbnail:     post.Thumbnail.URL,
		TopicSlug:     topicSlug,
		Topics:        metaJSON(topics),
		FeaturedAt:    post.FeaturedAt,
		PostedAt:      post.CreatedAt,
	}
}
