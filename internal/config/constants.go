package config

import "time"

// Constants defining default values for application configuration
const (
	DefaultDBPath      = "./launchradar.db"
	DefaultSourcesPath = "./sources.yaml"

	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultLogLevel = "info"

	// Job cadences. Fixed-UTC jobs are expressed as HH:MM below.
	DefaultNewsInterval     = 2 * time.Hour
	DefaultMarketInterval   = 10 * time.Minute
	DefaultSnapshotInterval = 5 * time.Minute
	DefaultSourcesInterval  = 4 * time.Hour

	TrendingSyncAtUTC  = "00:25" // daily
	WeeklyRefreshAtUTC = "00:05" // Sunday
	WeeklyCleanupAtUTC = "00:15" // Sunday

	// Retention ceilings for the news collection.
	DefaultNewsRetentionDays = 14
	DefaultNewsMaxRecords    = 500

	// Cooldown for scrape-unfriendly upstreams.
	DefaultScrapeCooldown = 6 * time.Hour

	// Per-feed item cap keeps a single noisy feed from dominating a run.
	FeedItemCap = 20

	// Politeness delay between successive calls to the same upstream.
	UpstreamDelay = time.Second

	SnapshotLimit        = 50
	SnapshotExpiryDays   = 7
	SnapshotCleanupCount = 50
	WeeklyCleanupCount   = 40
	TrendingFetchCount   = 10
	TopCoinsCount        = 50
	GithubSearchPerPage  = 20
	HackerNewsMaxStories = 100
)
