package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"launchradar/ingest/internal/config"
)

const (
	githubSearchURL   = "https://api.github.com/search/repositories"
	coingeckoBaseURL  = "https://api.coingecko.com/api/v3"
	hackerNewsBaseURL = "https://hacker-news.firebaseio.com/v0"
)

// RESTAdapter covers the simple paginated JSON upstreams: GitHub repository
// search, CoinGecko market data, and the HackerNews item API. Non-2xx
// responses are hard failures for the call.
type RESTAdapter struct {
	client      *http.Client
	githubToken string
}

// NewRESTAdapter builds the adapter; the GitHub token is optional and only
// raises the rate limit when present.
func NewRESTAdapter(githubToken string, client *http.Client) *RESTAdapter {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RESTAdapter{client: client, githubToken: githubToken}
}

func (r *RESTAdapter) getJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "LaunchRadar-Automation")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetch failed: %s returned %d", rawURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// Repo is one GitHub search result row.
type Repo struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Stars       int    `json:"stargazers_count"`
	Language    string `json:"language"`
}

// RepoSearchResult is one GitHub search page with its server-side total.
type RepoSearchResult struct {
	TotalCount int    `json:"total_count"`
	Items      []Repo `json:"items"`
}

// SearchRepos runs one server-side-sorted search page.
func (r *RESTAdapter) SearchRepos(ctx context.Context, query string) (RepoSearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "stars")
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(config.GithubSearchPerPage))

	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if r.githubToken != "" {
		headers["Authorization"] = "Bearer " + r.githubToken
	}

	var result RepoSearchResult
	err := r.getJSON(ctx, githubSearchURL+"?"+params.Encode(), headers, &result)
	return result, err
}

// CoinRow is one CoinGecko markets row.
type CoinRow struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Image          string  `json:"image"`
	CurrentPrice   float64 `json:"current_price"`
	MarketCap      float64 `json:"market_cap"`
	TotalVolume    float64 `json:"total_volume"`
	PriceChange24h float64 `json:"price_change_percentage_24h"`
	MarketCapRank  int     `json:"market_cap_rank"`
	LastUpdated    string  `json:"last_updated"`
}

// TopCoins fetches one page of market data sorted by market cap.
func (r *RESTAdapter) TopCoins(ctx context.Context, currency string, count int) ([]CoinRow, error) {
	params := url.Values{}
	params.Set("vs_currency", currency)
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(count))
	params.Set("page", "1")
	params.Set("sparkline", "false")

	var rows []CoinRow
	err := r.getJSON(ctx, coingeckoBaseURL+"/coins/markets?"+params.Encode(), nil, &rows)
	return rows, err
}

// Story is one HackerNews item.
type Story struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
	Score int    `json:"score"`
	Time  int64  `json:"time"`
}

// TopStories fetches the top-story id list and then each story, dropping
// individual item failures rather than failing the batch.
func (r *RESTAdapter) TopStories(ctx context.Context, limit int) ([]Story, error) {
	var ids []int64
	if err := r.getJSON(ctx, hackerNewsBaseURL+"/topstories.json", nil, &ids); err != nil {
		return nil, err
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	stories := make([]Story, 0, len(ids))
	for _, id := range ids {
		var story Story
		itemURL := fmt.Sprintf("%s/item/%d.json", hackerNewsBaseURL, id)
		if err := r.getJSON(ctx, itemURL, nil, &story); err != nil {
			log.Debug().Err(err).Int64("story_id", id).Msg("Story fetch failed, skipping")
			continue
		}
		if story.Title == "" {
			continue
		}
		stories = append(stories, story)
	}
	return stories, nil
}
