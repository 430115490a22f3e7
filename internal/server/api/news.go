// Package api holds the HTTP handlers for the read-only admin surface and
// the manual job triggers.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"launchradar/ingest/internal/models"
	"launchradar/ingest/internal/server/pagination"
	"launchradar/ingest/internal/store"
)

const defaultLimit = 100
const maxLimit = 1000

// NewsResponse is one page of news items plus the cursor for the next page.
type NewsResponse struct {
	Items      []models.NewsItem `json:"items"`
	NextCursor *string           `json:"next_cursor,omitempty"`
}

// NewsHandler serves the paginated news listing.
type NewsHandler struct {
	store *store.Store
}

// NewNewsHandler creates a handler over the store.
func NewNewsHandler(st *store.Store) *NewsHandler {
	return &NewsHandler{store: st}
}

// List handles GET requests for news items. Clients page either from a
// 'since' timestamp or from an opaque 'cursor' returned by a prior page.
func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	query := r.URL.Query()

	limit := defaultLimit
	if limitStr := query.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 || parsed > maxLimit {
			log.Warn().Str("limit", limitStr).Msg("Invalid 'limit' parameter value")
			http.Error(w, fmt.Sprintf("Invalid 'limit' parameter: must be between 1 and %d", maxLimit), http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	var since *time.Time
	var cursorTS *time.Time
	var cursorID *int64

	if cursorStr := query.Get("cursor"); cursorStr != "" {
		cursor, err := pagination.Decode(cursorStr)
		if err != nil {
			log.Warn().Err(err).Msg("Invalid 'cursor' parameter")
			http.Error(w, "Invalid 'cursor' parameter", http.StatusBadRequest)
			return
		}
		cursorTS = &cursor.Timestamp
		cursorID = &cursor.ID
	} else if sinceStr := query.Get("since"); sinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			log.Warn().Err(err).Str("since", sinceStr).Msg("Invalid 'since' parameter format")
			http.Error(w, "Invalid 'since' parameter: use RFC3339 format (e.g., 2025-06-02T15:00:00Z)", http.StatusBadRequest)
			return
		}
		utcSince := parsed.UTC()
		since = &utcSince
	} else {
		http.Error(w, "Missing required parameter: 'since' or 'cursor'", http.StatusBadRequest)
		return
	}

	// Fetch one extra row to learn whether another page exists.
	items, err := h.store.ListNews(r.Context(), limit+1, since, cursorTS, cursorID)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching news items")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var nextCursor *string
	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		token := pagination.Cursor{Timestamp: last.PublishedAt.UTC(), ID: last.ID}.Encode()
		nextCursor = &token
	}

	writeJSON(w, log, NewsResponse{Items: items, NextCursor: nextCursor})
}

func writeJSON(w http.ResponseWriter, log *zerolog.Logger, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling JSON response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		log.Error().Err(err).Msg("Error writing JSON response body")
	}
}
