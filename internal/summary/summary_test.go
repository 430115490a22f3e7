package summary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeDisabledWithoutKey(t *testing.T) {
	t.Parallel()

	c := New("")
	assert.False(t, c.Enabled())
	assert.Equal(t, "", c.Summarize(context.Background(), "Title", "Some text"))
}

func TestSummarizeReturnsContent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultModel, req["model"])

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "  A concise summary.  "}},
			},
		})
	}))
	defer srv.Close()

	c := New("sk-test")
	c.endpoint = srv.URL

	got := c.Summarize(context.Background(), "New Tool", "A long description of the tool.")
	assert.Equal(t, "A concise summary.", got)
}

func TestSummarizeDegradesOnUpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limit"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New("sk-test")
	c.endpoint = srv.URL

	assert.Equal(t, "", c.Summarize(context.Background(), "Title", "text"))
}

func TestSummarizeEmptyTextShortCircuits(t *testing.T) {
	t.Parallel()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New("sk-test")
	c.endpoint = srv.URL

	assert.Equal(t, "", c.Summarize(context.Background(), "Title", "   "))
	assert.False(t, called)
}
