package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type graphRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func TestGraphAdapterMissingToken(t *testing.T) {
	t.Parallel()

	adapter := NewGraphAdapter("", nil)
	assert.False(t, adapter.Enabled())

	_, err := adapter.NewestPosts(context.Background())
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestTopOfDayPagination(t *testing.T) {
	t.Parallel()

	var pages int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req graphRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		pages++
		edges := make([]map[string]any, 0)
		perPage := 20
		if pages == 2 {
			perPage = 10
		}
		for i := 0; i < perPage; i++ {
			id := (pages-1)*20 + i
			edges = append(edges, map[string]any{
				"cursor": fmt.Sprintf("c%d", id),
				"node":   map[string]any{"id": fmt.Sprintf("p%d", id), "name": fmt.Sprintf("Product %d", id)},
			})
		}

		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"posts": map[string]any{
					"edges": edges,
					"pageInfo": map[string]any{
						"hasNextPage": pages == 1,
						"endCursor":   fmt.Sprintf("c%d", pages*20-1),
					},
				},
			},
		})
	}))
	defer srv.Close()

	adapter := NewGraphAdapter("test-token", srv.Client())
	adapter.endpoint = srv.URL

	result, err := adapter.TopOfDay(context.Background(), 30, time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC), true)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pages)
	assert.Len(t, result.Posts, 30)
	assert.Equal(t, "p0", result.Posts[0].ID)
	assert.Equal(t, "2025-06-02T00:00:00Z", result.Window.PostedAfter)
	assert.Equal(t, "2025-06-03T00:00:00Z", result.Window.PostedBefore)
	assert.False(t, result.FallbackUsed)
}

func TestTopOfDayPreviousDayFallback(t *testing.T) {
	t.Parallel()

	var windows []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		postedAfter, _ := req.Variables["postedAfter"].(string)
		windows = append(windows, postedAfter)

		edges := []map[string]any{}
		// Primary day is empty; previous day has one post.
		if postedAfter == "2025-06-01T00:00:00Z" {
			edges = append(edges, map[string]any{
				"cursor": "c0",
				"node":   map[string]any{"id": "p0", "name": "Yesterday Hit"},
			})
		}

		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"posts": map[string]any{
					"edges":    edges,
					"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""},
				},
			},
		})
	}))
	defer srv.Close()

	adapter := NewGraphAdapter("test-token", srv.Client())
	adapter.endpoint = srv.URL

	result, err := adapter.TopOfDay(context.Background(), 20, time.Date(2025, 6, 2, 0, 5, 0, 0, time.UTC), false)
	require.NoError(t, err)

	assert.True(t, result.FallbackUsed)
	require.Len(t, result.Posts, 1)
	assert.Equal(t, "Yesterday Hit", result.Posts[0].Name)
	assert.Equal(t, []string{"2025-06-02T00:00:00Z", "2025-06-01T00:00:00Z"}, windows)
}

func TestTopOfDayNoFallbackForExplicitDate(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"posts": map[string]any{
					"edges":    []any{},
					"pageInfo": map[string]any{"hasNextPage": false, "endCursor": ""},
				},
			},
		})
	}))
	defer srv.Close()

	adapter := NewGraphAdapter("test-token", srv.Client())
	adapter.endpoint = srv.URL

	result, err := adapter.TopOfDay(context.Background(), 20, time.Date(2025, 6, 2, 0, 5, 0, 0, time.UTC), true)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Empty(t, result.Posts)
	assert.False(t, result.FallbackUsed)
}

func TestGraphErrorSurface(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"message": "rate limited"}},
		})
	}))
	defer srv.Close()

	adapter := NewGraphAdapter("test-token", srv.Client())
	adapter.endpoint = srv.URL

	_, err := adapter.Topics(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestSnapshotKey(t *testing.T) {
	t.Parallel()

	key := SnapshotKey(time.Date(2025, 6, 2, 14, 35, 42, 0, time.UTC))
	assert.Equal(t, "2025-06-02T14:35:00Z", key)
}
