package jobs

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"launchradar/ingest/internal/fetch"
	"launchradar/ingest/internal/models"
	"launchradar/ingest/internal/normalize"
	"launchradar/ingest/internal/store"
)

const airdropSource = "airdrops.io"

// RunAirdrops scrapes the listing site behind the cooldown gate. force
// bypasses the gate for manual triggers; a blocked run still records a
// partial row carrying the resume time so the skip is visible in history.
func (r *Runner) RunAirdrops(ctx context.Context, force bool) error {
	started := r.now().UTC()

	count, err := r.store.Count(ctx, "airdrops")
	if err != nil {
		return err
	}

	decision, err := r.gate.Check(ctx, JobAirdrops, airdropSource, count, force, started)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		log.Info().Time("next_allowed_at", decision.NextAllowedAt).Msg("Airdrop scrape on cooldown, skipping")
		r.record(ctx, models.RunLog{
			JobName: JobAirdrops, Source: airdropSource, Status: models.RunPartial,
			StartedAt: started, FinishedAt: r.now().UTC(),
			ErrorMessage: "skipped: cooldown",
			Meta:         metaJSON(decision),
		})
		return nil
	}

	result, err := r.scraper.Fetch(ctx)
	if err != nil {
		var unreachable *fetch.UnreachableError
		if errors.As(err, &unreachable) {
			log.Error().Int("mirrors", len(unreachable.Attempts)).Msg("All airdrop mirrors unreachable")
		}
		r.record(ctx, models.RunLog{
			JobName: JobAirdrops, Source: airdropSource, Status: models.RunError,
			StartedAt: started, FinishedAt: r.now().UTC(), ErrorMessage: err.Error(),
		})
		return err
	}

	if len(result.Cards) == 0 {
		// Reachable page but nothing parsed usually means markup drift.
		log.Error().Interface("attempts", result.Attempts).Msg("Airdrop scrape matched zero cards")
		r.record(ctx, models.RunLog{
			JobName: JobAirdrops, Source: airdropSource, Status: models.RunPartial,
			StartedAt: started, FinishedAt: r.now().UTC(),
			ErrorMessage: "scrape matched zero cards",
			Meta:         metaJSON(result.Attempts),
		})
		return nil
	}

	items := make([]models.Airdrop, 0, len(result.Cards))
	for _, card := range result.Cards {
		items = append(items, models.Airdrop{
			Title:       normalize.Text(card.Title),
			Description: normalize.Text(card.Description),
			SourceURL:   normalize.CanonicalLink(card.SourceURL),
			Logo:        card.Logo,
			Status:      card.Status,
			Source:      airdropSource,
			ImportedAt:  started,
		})
	}
	items = store.DedupeBy(items, func(a models.Airdrop) string { return a.SourceURL })

	// Summaries are only generated for listings we have not seen before;
	// the store keeps the first summary on conflict anyway.
	if r.summarizer.Enabled() {
		keys := make([]string, len(items))
		for i, item := range items {
			keys[i] = item.SourceURL
		}
		existing, err := r.store.ExistingKeys(ctx, "airdrops", "source_url", keys)
		if err == nil {
			for i := range items {
				if _, seen := existing[items[i].SourceURL]; seen {
					continue
				}
				items[i].AISummary = r.summarizer.Summarize(ctx, items[i].Title, items[i].Description)
			}
		}
	}

	inserted, err := r.store.UpsertAirdrops(ctx, items)
	status := models.RunSuccess
	errMsg := ""
	if err != nil {
		status = models.RunError
		errMsg = err.Error()
	}

	r.record(ctx, models.RunLog{
		JobName: JobAirdrops, Source: airdropSource, Status: status,
		StartedAt: started, FinishedAt: r.now().UTC(),
		Fetched: len(result.Cards), Matched: len(items), Inserted: inserted,
		Skipped: len(items) - inserted, ErrorMessage: errMsg,
		Meta: metaJSON(map[string]any{"selector": result.SelectorUsed}),
	})

	log.Info().Int("cards", len(result.Cards)).Int("new", inserted).
		Str("selector", result.SelectorUsed).Msg("Airdrop run finished")
	return err
}
