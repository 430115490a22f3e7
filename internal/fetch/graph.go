package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const productHuntGraphQLURL = "https://api.producthunt.com/v2/api/graphql"

// ErrMissingToken is returned at job-start time when the Product Hunt token
// is absent; the adapter fails fast rather than mid-batch.
var ErrMissingToken = errors.New("missing Product Hunt token")

const newestPostsQuery = `
query IngestNewestPosts {
  posts(first: 50, order: NEWEST) {
    edges {
      node {
        id name tagline description slug website url
        votesCount commentsCount dailyRank featuredAt createdAt
        thumbnail { url }
      }
    }
  }
}`

const topicsQuery = `
query IngestTopics {
  topics(first: 50, order: FOLLOWERS_COUNT) {
    edges {
      node { id name slug followersCount postsCount }
    }
  }
}`

const productsByTopicQuery = `
query IngestProductsByTopic($topic: String!) {
  posts(first: 20, order: VOTES, topic: $topic) {
    edges {
      node {
        id name slug tagline description website url
        votesCount commentsCount dailyRank featuredAt createdAt
        thumbnail { url }
        topics { edges { node { name slug } } }
      }
    }
  }
}`

const topOfDayQuery = `
query IngestTopOfDay($first: Int!, $after: String, $postedAfter: DateTime!, $postedBefore: DateTime!) {
  posts(first: $first, after: $after, order: VOTES, postedAfter: $postedAfter, postedBefore: $postedBefore) {
    edges {
      cursor
      node {
        id name slug tagline website url
        votesCount commentsCount featuredAt createdAt
        thumbnail { url }
      }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

const trendingQuery = `
query IngestTrending {
  posts(first: 10, order: VOTES) {
    edges {
      node { name tagline votesCount website }
    }
  }
}`

// GraphNode is one Product Hunt post node.
type GraphNode struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Tagline       string `json:"tagline"`
	Description   string `json:"description"`
	Website       string `json:"website"`
	URL           string `json:"url"`
	VotesCount    int    `json:"votesCount"`
	CommentsCount int    `json:"commentsCount"`
	DailyRank     int    `json:"dailyRank"`
	FeaturedAt    string `json:"featuredAt"`
	CreatedAt     string `json:"createdAt"`
	Thumbnail     struct {
		URL string `json:"url"`
	} `json:"thumbnail"`
	Topics struct {
		Edges []struct {
			Node struct {
				Name string `json:"name"`
				Slug string `json:"slug"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"topics"`
}

// TopicNode is one Product Hunt topic node.
type TopicNode struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	FollowersCount int    `json:"followersCount"`
	PostsCount     int    `json:"postsCount"`
}

type postsConnection struct {
	Edges []struct {
		Cursor string    `json:"cursor"`
		Node   GraphNode `json:"node"`
	} `json:"edges"`
	PageInfo struct {
		HasNextPage bool   `json:"hasNextPage"`
		EndCursor   string `json:"endCursor"`
	} `json:"pageInfo"`
}

type graphResponse struct {
	Data struct {
		Posts  postsConnection `json:"posts"`
		Topics struct {
			Edges []struct {
				Node TopicNode `json:"node"`
			} `json:"edges"`
		} `json:"topics"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// DayWindow is an explicit UTC day boundary pair for windowed queries.
type DayWindow struct {
	PostedAfter  string
	PostedBefore string
	SnapshotDate string
}

// UTCDayWindow computes the [00:00, 24:00) UTC boundaries for the given day.
func UTCDayWindow(day time.Time) DayWindow {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return DayWindow{
		PostedAfter:  start.Format(time.RFC3339),
		PostedBefore: start.AddDate(0, 0, 1).Format(time.RFC3339),
		SnapshotDate: start.Format("2006-01-02"),
	}
}

// SnapshotKey encodes the moment a snapshot generation ran, minute precision.
func SnapshotKey(now time.Time) string {
	return now.UTC().Format("2006-01-02T15:04") + ":00Z"
}

// GraphAdapter issues paginated GraphQL queries against Product Hunt.
type GraphAdapter struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewGraphAdapter builds the adapter; an empty token is allowed here and
// rejected by Enabled/execute so callers can disable the source cleanly.
func NewGraphAdapter(token string, client *http.Client) *GraphAdapter {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &GraphAdapter{endpoint: productHuntGraphQLURL, token: token, client: client}
}

// Enabled reports whether the adapter has a token to authenticate with.
func (g *GraphAdapter) Enabled() bool {
	return g.token != ""
}

func (g *GraphAdapter) execute(ctx context.Context, query string, variables map[string]any) (*graphResponse, error) {
	if g.token == "" {
		return nil, ErrMissingToken
	}

	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return nil, fmt.Errorf("marshal graphql payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "LaunchRadar-Automation")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("graphql returned %s: %s", resp.Status, bytes.TrimSpace(payload))
	}

	var parsed graphResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", parsed.Errors[0].Message)
	}
	return &parsed, nil
}

// NewestPosts returns the newest posts, capped upstream at 50.
func (g *GraphAdapter) NewestPosts(ctx context.Context) ([]GraphNode, error) {
	resp, err := g.execute(ctx, newestPostsQuery, nil)
	if err != nil {
		return nil, err
	}
	return connectionNodes(resp.Data.Posts), nil
}

// Topics returns the topic catalog ordered by follower count.
func (g *GraphAdapter) Topics(ctx context.Context) ([]TopicNode, error) {
	resp, err := g.execute(ctx, topicsQuery, nil)
	if err != nil {
		return nil, err
	}
	topics := make([]TopicNode, 0, len(resp.Data.Topics.Edges))
	for _, edge := range resp.Data.Topics.Edges {
		topics = append(topics, edge.Node)
	}
	return topics, nil
}

// ProductsByTopic returns the top posts for one topic slug.
func (g *GraphAdapter) ProductsByTopic(ctx context.Context, topicSlug string) ([]GraphNode, error) {
	resp, err := g.execute(ctx, productsByTopicQuery, map[string]any{"topic": topicSlug})
	if err != nil {
		return nil, err
	}
	return connectionNodes(resp.Data.Posts), nil
}

// Trending returns the current top posts by votes.
func (g *GraphAdapter) Trending(ctx context.Context) ([]GraphNode, error) {
	resp, err := g.execute(ctx, trendingQuery, nil)
	if err != nil {
		return nil, err
	}
	return connectionNodes(resp.Data.Posts), nil
}

// TopOfDayResult carries the ranked posts for one UTC day window.
type TopOfDayResult struct {
	Window       DayWindow
	Posts        []GraphNode
	FallbackUsed bool
	Pages        int
}

// TopOfDay gathers up to limit posts for the UTC day containing ref,
// following hasNextPage/endCursor until the limit is met or pagination is
// exhausted. When no explicit date was requested and the primary day yields
// zero posts, it retries once against the previous UTC day: early in a UTC
// day the board is often still empty.
func (g *GraphAdapter) TopOfDay(ctx context.Context, limit int, ref time.Time, explicitDate bool) (TopOfDayResult, error) {
	if limit <= 0 {
		limit = 20
	}

	result, err := g.topOfDayWindow(ctx, limit, UTCDayWindow(ref))
	if err != nil {
		return result, err
	}

	if !explicitDate && len(result.Posts) == 0 {
		fallback, err := g.topOfDayWindow(ctx, limit, UTCDayWindow(ref.AddDate(0, 0, -1)))
		if err != nil {
			return fallback, err
		}
		fallback.FallbackUsed = true
		return fallback, nil
	}
	return result, nil
}

func (g *GraphAdapter) topOfDayWindow(ctx context.Context, limit int, window DayWindow) (TopOfDayResult, error) {
	result := TopOfDayResult{Window: window}

	var after any
	for len(result.Posts) < limit {
		first := limit - len(result.Posts)
		if first > 20 {
			first = 20
		}

		resp, err := g.execute(ctx, topOfDayQuery, map[string]any{
			"first":        first,
			"after":        after,
			"postedAfter":  window.PostedAfter,
			"postedBefore": window.PostedBefore,
		})
		if err != nil {
			return result, err
		}
		result.Pages++

		conn := resp.Data.Posts
		if len(conn.Edges) == 0 {
			break
		}
		for _, edge := range conn.Edges {
			result.Posts = append(result.Posts, edge.Node)
		}
		if !conn.PageInfo.HasNextPage {
			break
		}
		after = conn.PageInfo.EndCursor
	}

	if len(result.Posts) > limit {
		result.Posts = result.Posts[:limit]
	}
	return result, nil
}

func connectionNodes(conn postsConnection) []GraphNode {
	nodes := make([]GraphNode, 0, len(conn.Edges))
	for _, edge := range conn.Edges {
		nodes = append(nodes, edge.Node)
	}
	return nodes
}
