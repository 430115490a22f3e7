package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"launchradar/ingest/internal/config"
	"launchradar/ingest/internal/models"
)

// RunMarket refreshes the top coins by market cap.
func (r *Runner) RunMarket(ctx context.Context) error {
	started := r.now().UTC()

	rows, err := r.rest.TopCoins(ctx, r.sources.MarketCurrency, config.TopCoinsCount)
	if err != nil {
		r.record(ctx, models.RunLog{
			JobName: JobMarket, Source: "coingecko", Status: models.RunError,
			StartedAt: started, FinishedAt: r.now().UTC(), ErrorMessage: err.Error(),
		})
		return err
	}

	coins := make([]models.Coin, 0, len(rows))
	for _, row := range rows {
		lastUpdated, _ := time.Parse(time.RFC3339, row.LastUpdated)
		if lastUpdated.IsZero() {
			lastUpdated = started
		}
		coins = append(coins, models.Coin{
			CoinID:         row.ID,
			Symbol:         row.Symbol,
			Name:           row.Name,
			Image:          row.Image,
			CurrentPrice:   row.CurrentPrice,
			MarketCap:      row.MarketCap,
			TotalVolume:    row.TotalVolume,
			PriceChange24h: row.PriceChange24h,
			MarketCapRank:  row.MarketCapRank,
			LastUpdated:    lastUpdated,
		})
	}

	written, err := r.store.UpsertCoins(ctx, coins)
	status := models.RunSuccess
	errMsg := ""
	if err != nil {
		status = models.RunError
		errMsg = err.Error()
	}

	r.record(ctx, models.RunLog{
		JobName: JobMarket, Source: "coingecko", Status: status,
		StartedAt: started, FinishedAt: r.now().UTC(),
		Fetched: len(rows), Inserted: written, ErrorMessage: errMsg,
	})

	log.Info().Int("coins", written).Msg("Market run finished")
	return err
}
