package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"launchradar/ingest/internal/runlog"
)

const defaultSummaryDays = 7
const maxSummaryDays = 90

// RunsHandler serves the ingestion run history.
type RunsHandler struct {
	recorder *runlog.Recorder
	now      func() time.Time
}

// NewRunsHandler creates a handler over the run recorder.
func NewRunsHandler(recorder *runlog.Recorder) *RunsHandler {
	return &RunsHandler{recorder: recorder, now: time.Now}
}

// List handles GET requests for run history, newest first. Supports job,
// status, limit, and offset query parameters.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	query := r.URL.Query()

	filter := runlog.ListFilter{
		JobName: query.Get("job"),
		Status:  query.Get("status"),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid 'limit' parameter", http.StatusBadRequest)
			return
		}
		filter.Limit = parsed
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil || parsed < 0 {
			http.Error(w, "Invalid 'offset' parameter", http.StatusBadRequest)
			return
		}
		filter.Offset = parsed
	}

	entries, err := h.recorder.List(r.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Error listing runs")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, log, map[string]any{"runs": entries})
}

// Summary handles GET requests for per-job aggregates over a trailing
// window of days.
func (h *RunsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	days := defaultSummaryDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 || parsed > maxSummaryDays {
			http.Error(w, "Invalid 'days' parameter", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	summaries, err := h.recorder.Summary(r.Context(), time.Duration(days)*24*time.Hour, h.now())
	if err != nil {
		log.Error().Err(err).Msg("Error summarizing runs")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, log, map[string]any{"days": days, "jobs": summaries})
}
