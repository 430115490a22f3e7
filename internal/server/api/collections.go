package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"

	"launchradar/ingest/internal/store"
)

const defaultCollectionLimit = 50
const maxCollectionLimit = 500

// CollectionsHandler serves the small refreshable collections that do not
// need cursor pagination.
type CollectionsHandler struct {
	store *store.Store
}

// NewCollectionsHandler creates the handler.
func NewCollectionsHandler(st *store.Store) *CollectionsHandler {
	return &CollectionsHandler{store: st}
}

func parseLimit(r *http.Request) (int, bool) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return defaultCollectionLimit, true
	}
	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed <= 0 || parsed > maxCollectionLimit {
		return 0, false
	}
	return parsed, true
}

// Trending handles GET requests for the current trending set.
func (h *CollectionsHandler) Trending(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	rows, err := h.store.ListTrending(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error listing trending products")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, log, map[string]any{"products": rows})
}

// TopProducts handles GET requests for the latest snapshot generation, or a
// specific one via ?snapshot=.
func (h *CollectionsHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	key := r.URL.Query().Get("snapshot")
	if key == "" {
		latest, err := h.store.LatestSnapshotKey(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Error resolving latest snapshot")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		key = latest
	}

	rows, err := h.store.TopProductsBySnapshot(r.Context(), key)
	if err != nil {
		log.Error().Err(err).Str("snapshot", key).Msg("Error listing snapshot")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, log, map[string]any{"snapshot": key, "products": rows})
}

// Coins handles GET requests for market rows in market-cap order.
func (h *CollectionsHandler) Coins(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	limit, ok := parseLimit(r)
	if !ok {
		http.Error(w, "Invalid 'limit' parameter", http.StatusBadRequest)
		return
	}

	rows, err := h.store.ListCoins(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Error listing coins")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, log, map[string]any{"coins": rows})
}

// Airdrops handles GET requests for listings, newest import first.
func (h *CollectionsHandler) Airdrops(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	limit, ok := parseLimit(r)
	if !ok {
		http.Error(w, "Invalid 'limit' parameter", http.StatusBadRequest)
		return
	}

	rows, err := h.store.ListAirdrops(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Error listing airdrops")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, log, map[string]any{"airdrops": rows})
}
