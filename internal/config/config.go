package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	// File paths
	DBPath      string
	SourcesPath string

	// Server settings
	ServerHost string
	ServerPort int
	APIKey     string

	// Credentials. An empty value disables the adapter that needs it
	// rather than failing the whole pipeline.
	ProductHuntToken string
	OpenAIKey        string
	GithubToken      string

	// Processing settings
	NewsInterval     time.Duration
	MarketInterval   time.Duration
	SnapshotInterval time.Duration
	SourcesInterval  time.Duration
	ScrapeCooldown   time.Duration
	RetentionDays    int
	MaxNewsRecords   int

	// Log settings
	LogLevel zerolog.Level
}

// DefaultConfig returns an initial configuration with hardcoded defaults
// plus environment overrides for credentials.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		DBPath:           DefaultDBPath,
		SourcesPath:      DefaultSourcesPath,
		ServerHost:       DefaultServerHost,
		ServerPort:       DefaultServerPort,
		APIKey:           GetEnvString("INGEST_API_KEY", ""),
		ProductHuntToken: GetEnvString("PRODUCTHUNT_TOKEN", GetEnvString("PRODUCTHUNT_ACCESS_TOKEN", "")),
		OpenAIKey:        GetEnvString("OPENAI_API_KEY", ""),
		GithubToken:      GetEnvString("GITHUB_TOKEN", ""),
		NewsInterval:     GetEnvDuration("INGEST_NEWS_INTERVAL", DefaultNewsInterval),
		MarketInterval:   GetEnvDuration("INGEST_MARKET_INTERVAL", DefaultMarketInterval),
		SnapshotInterval: GetEnvDuration("INGEST_SNAPSHOT_INTERVAL", DefaultSnapshotInterval),
		SourcesInterval:  GetEnvDuration("INGEST_SOURCES_INTERVAL", DefaultSourcesInterval),
		ScrapeCooldown:   GetEnvDuration("INGEST_SCRAPE_COOLDOWN", DefaultScrapeCooldown),
		RetentionDays:    GetEnvInt("INGEST_RETENTION_DAYS", DefaultNewsRetentionDays),
		MaxNewsRecords:   GetEnvInt("INGEST_MAX_NEWS_RECORDS", DefaultNewsMaxRecords),
		LogLevel:         logLevel,
	}
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}
