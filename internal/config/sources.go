package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Feed identifies one RSS/Atom upstream.
type Feed struct {
	Source string `yaml:"source"`
	URL    string `yaml:"url"`
}

// ScrapeTarget describes an HTML source with its mirror URLs and the ordered
// selector chain tried against the fetched document.
type ScrapeTarget struct {
	Source      string   `yaml:"source"`
	URLs        []string `yaml:"urls"`
	BaseURL     string   `yaml:"baseUrl"`
	Selectors   []string `yaml:"selectors"`
	LinkPattern string   `yaml:"linkPattern"`
}

// Sources is the externally supplied source catalog. Every field has a
// baked-in default so the daemon runs without a file present.
type Sources struct {
	Feeds           []Feed       `yaml:"feeds"`
	IncludeKeywords []string     `yaml:"includeKeywords"`
	ExcludeKeywords []string     `yaml:"excludeKeywords"`
	Airdrops        ScrapeTarget `yaml:"airdrops"`
	GithubQuery     string       `yaml:"githubQuery"`
	MarketCurrency  string       `yaml:"marketCurrency"`
}

// LoadSources reads the YAML catalog at path, if present, and merges it over
// the defaults. A missing file is not an error; a malformed one is.
func LoadSources(path string) (Sources, error) {
	src := defaultSources()

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return src, nil
	}
	if err != nil {
		return src, fmt.Errorf("read sources file %s: %w", path, err)
	}

	var fileSrc Sources
	if err := yaml.Unmarshal(raw, &fileSrc); err != nil {
		return src, fmt.Errorf("parse sources file %s: %w", path, err)
	}

	if len(fileSrc.Feeds) > 0 {
		src.Feeds = fileSrc.Feeds
	}
	if len(fileSrc.IncludeKeywords) > 0 {
		src.IncludeKeywords = fileSrc.IncludeKeywords
	}
	if len(fileSrc.ExcludeKeywords) > 0 {
		src.ExcludeKeywords = fileSrc.ExcludeKeywords
	}
	if len(fileSrc.Airdrops.URLs) > 0 {
		src.Airdrops = fileSrc.Airdrops
	}
	if fileSrc.GithubQuery != "" {
		src.GithubQuery = fileSrc.GithubQuery
	}
	if fileSrc.MarketCurrency != "" {
		src.MarketCurrency = fileSrc.MarketCurrency
	}

	return src, nil
}

func defaultSources() Sources {
	return Sources{
		Feeds: []Feed{
			{Source: "hackernews", URL: "https://news.ycombinator.com/rss"},
			{Source: "devto-ai", URL: "https://dev.to/feed/tag/ai"},
			{Source: "techcrunch-ai", URL: "https://techcrunch.com/tag/artificial-intelligence/feed/"},
			{Source: "venturebeat-ai", URL: "https://venturebeat.com/category/ai/feed/"},
			{Source: "producthunt", URL: "https://www.producthunt.com/feed"},
			{Source: "reddit-ai", URL: "https://www.reddit.com/r/artificial/.rss"},
			{Source: "reddit-ml", URL: "https://www.reddit.com/r/MachineLearning/.rss"},
			{Source: "tds", URL: "https://towardsdatascience.com/feed"},
			{Source: "google-ai-blog", URL: "https://ai.googleblog.com/feeds/posts/default"},
			{Source: "openai-blog", URL: "https://openai.com/blog/rss.xml"},
			{Source: "huggingface", URL: "https://huggingface.co/blog/feed.xml"},
			{Source: "marktechpost", URL: "https://www.marktechpost.com/feed/"},
			{Source: "analyticsvidhya", URL: "https://www.analyticsvidhya.com/blog/feed/"},
			{Source: "unite-ai", URL: "https://www.unite.ai/feed/"},
			{Source: "ml-mastery", URL: "https://machinelearningmastery.com/blog/feed/"},
			{Source: "theverge-ai", URL: "https://www.theverge.com/ai-artificial-intelligence/rss/index.xml"},
			{Source: "arxiv-ai", URL: "https://arxiv.org/rss/cs.AI"},
			{Source: "kdnuggets", URL: "https://feeds.feedburner.com/kdnuggets"},
		},
		IncludeKeywords: []string{
			"ai",
			"artificial intelligence",
			"machine learning",
			"deep learning",
			"gpt",
			"chatgpt",
			"llm",
			"generative ai",
			"gen ai",
			"openai",
			"anthropic",
			"claude",
			"gemini",
			"deepmind",
			"computer vision",
			"nlp",
			"natural language processing",
			"robotics",
		},
		ExcludeKeywords: []string{
			"war",
			"battlefield",
			"missile",
			"airstrike",
			"military",
			"conflict",
			"ceasefire",
			"invasion",
			"terror",
			"election",
			"geopolitics",
		},
		Airdrops: ScrapeTarget{
			Source:  "airdrops.io",
			URLs:    []string{"https://airdrops.io/", "https://www.airdrops.io/"},
			BaseURL: "https://airdrops.io/",
			Selectors: []string{
				".latest-airdrops .card",
				".latest-airdrops [class*=\"card\"]",
				".latest-airdrops article",
				".card",
				"article",
			},
			LinkPattern: "/airdrop/",
		},
		GithubQuery:    "ai in:name,description",
		MarketCurrency: "usd",
	}
}
