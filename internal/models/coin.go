package models

import "time"

// Coin is a refreshable market-data row keyed by the upstream coin id.
type Coin struct {
	ID             int64     `db:"id" json:"id"`
	CoinID         string    `db:"coin_id" json:"coin_id"`
	Symbol         string    `db:"symbol" json:"symbol"`
	Name           string    `db:"name" json:"name"`
	Image          string    `db:"image" json:"image,omitempty"`
	CurrentPrice   float64   `db:"current_price" json:"current_price"`
	MarketCap      float64   `db:"market_cap" json:"market_cap"`
	TotalVolume    float64   `db:"total_volume" json:"total_volume"`
	PriceChange24h float64   `db:"price_change_24h" json:"price_change_24h"`
	MarketCapRank  int       `db:"market_cap_rank" json:"market_cap_rank"`
	LastUpdated    time.Time `db:"last_updated" json:"last_updated"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
