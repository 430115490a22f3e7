package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"launchradar/ingest/internal/models"
	"launchradar/ingest/internal/scheduler"
)

// Trigger starts jobs by name outside their schedule and reports the run
// row each one recorded.
type Trigger interface {
	Run(ctx context.Context, job string, force bool) (models.RunLog, error)
	Jobs() []string
}

// TriggerHandler exposes manual job runs over HTTP.
type TriggerHandler struct {
	trigger Trigger
}

// NewTriggerHandler creates the handler.
func NewTriggerHandler(trigger Trigger) *TriggerHandler {
	return &TriggerHandler{trigger: trigger}
}

// Run handles POST requests that start one job. The run executes inline so
// the response reports its outcome; ?force=true bypasses cooldown gates.
func (h *TriggerHandler) Run(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	job := r.PathValue("job")
	force := r.URL.Query().Get("force") == "true"

	entry, err := h.trigger.Run(r.Context(), job, force)
	switch {
	case errors.Is(err, scheduler.ErrUnknownJob):
		http.Error(w, "Unknown job: "+job, http.StatusNotFound)
		return
	case errors.Is(err, scheduler.ErrAlreadyRunning):
		http.Error(w, "Job already running: "+job, http.StatusConflict)
		return
	case err != nil:
		log.Error().Err(err).Str("job", job).Msg("Triggered run failed")
		writeJSON(w, log, map[string]any{"job": job, "status": "failed", "error": err.Error(), "run": entry})
		return
	}

	log.Info().Str("job", job).Bool("force", force).Msg("Triggered run completed")
	writeJSON(w, log, map[string]any{"job": job, "status": "completed", "run": entry})
}

// List handles GET requests enumerating the triggerable jobs.
func (h *TriggerHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, hlog.FromRequest(r), map[string]any{"jobs": h.trigger.Jobs()})
}
