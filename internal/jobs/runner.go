// Package jobs wires the fetch adapters, filters, and store into the
// runnable ingestion jobs. Every run, including skipped and failed ones,
// ends in exactly one run_logs row.
package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"launchradar/ingest/internal/config"
	"launchradar/ingest/internal/cooldown"
	"launchradar/ingest/internal/fetch"
	"launchradar/ingest/internal/models"
	"launchradar/ingest/internal/relevance"
	"launchradar/ingest/internal/runlog"
	"launchradar/ingest/internal/scheduler"
	"launchradar/ingest/internal/store"
	"launchradar/ingest/internal/summary"
)

// Job names as they appear in run_logs and trigger URLs.
const (
	JobNews          = "news"
	JobSources       = "sources"
	JobMarket        = "market"
	JobSnapshot      = "snapshot"
	JobTrending      = "trending"
	JobAirdrops      = "airdrops"
	JobWeeklyRefresh = "weekly-refresh"
	JobWeeklyCleanup = "weekly-cleanup"
)

// Runner owns the adapters and executes ingestion runs.
type Runner struct {
	cfg     *config.Config
	sources config.Sources

	store    *store.Store
	recorder *runlog.Recorder
	gate     *cooldown.Gate

	feeds      *fetch.FeedAdapter
	graph      *fetch.GraphAdapter
	rest       *fetch.RESTAdapter
	scraper    *fetch.ScrapeAdapter
	summarizer *summary.Client
	filter     *relevance.Filter

	// Overridable in tests.
	now   func() time.Time
	delay time.Duration
}

// NewRunner builds a Runner with live adapters.
func NewRunner(cfg *config.Config, sources config.Sources, st *store.Store, recorder *runlog.Recorder) *Runner {
	client := &http.Client{Timeout: 20 * time.Second}

	return &Runner{
		cfg:        cfg,
		sources:    sources,
		store:      st,
		recorder:   recorder,
		gate:       cooldown.New(recorder, cfg.ScrapeCooldown),
		feeds:      fetch.NewFeedAdapter(client),
		graph:      fetch.NewGraphAdapter(cfg.ProductHuntToken, client),
		rest:       fetch.NewRESTAdapter(cfg.GithubToken, client),
		scraper:    fetch.NewScrapeAdapter(sources.Airdrops, client),
		summarizer: summary.New(cfg.OpenAIKey),
		filter:     relevance.NewFilter(sources.IncludeKeywords, sources.ExcludeKeywords),
		now:        time.Now,
		delay:      config.UpstreamDelay,
	}
}

// Register attaches every job to the scheduler at its cadence.
func (r *Runner) Register(s *scheduler.Scheduler) error {
	sunday := time.Sunday

	jobs := []*scheduler.Job{
		{Name: JobNews, Every: r.cfg.NewsInterval, Immediate: true, Run: r.RunNews},
		{Name: JobSources, Every: r.cfg.SourcesInterval, Run: r.RunSources},
		{Name: JobMarket, Every: r.cfg.MarketInterval, Immediate: true, Run: r.RunMarket},
		{Name: JobSnapshot, Every: r.cfg.SnapshotInterval, Run: r.RunSnapshot},
		{Name: JobAirdrops, Every: r.cfg.ScrapeCooldown, Immediate: true, Run: func(ctx context.Context) error {
			return r.RunAirdrops(ctx, false)
		}},
		{Name: JobTrending, At: config.TrendingSyncAtUTC, Run: r.RunTrending},
		{Name: JobWeeklyRefresh, At: config.WeeklyRefreshAtUTC, Weekday: &sunday, Run: r.RunWeeklyRefresh},
		{Name: JobWeeklyCleanup, At: config.WeeklyCleanupAtUTC, Weekday: &sunday, Run: r.RunWeeklyCleanup},
	}

	for _, job := range jobs {
		if err := s.Register(job); err != nil {
			return err
		}
	}
	return nil
}

// record writes the run row; failures here are logged, not propagated, so a
// bookkeeping hiccup never masks the run's own outcome.
func (r *Runner) record(ctx context.Context, entry models.RunLog) {
	if err := r.recorder.Record(ctx, entry); err != nil {
		log.Error().Err(err).Str("job", entry.JobName).Msg("Failed to record run")
	}
}

// runStatus derives the run status from per-source failures and progress.
// A store failure is always an error: the sources may be healthy, but the
// run could not persist what it fetched.
func runStatus(storeFailed bool, failures, successes int) string {
	switch {
	case storeFailed:
		return models.RunError
	case failures == 0:
		return models.RunSuccess
	case successes == 0:
		return models.RunError
	default:
		return models.RunPartial
	}
}

func metaJSON(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return raw
}
