// Package server assembles the admin HTTP surface: read endpoints for the
// ingested collections and run history, and manual job triggers.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"launchradar/ingest/internal/database"
	"launchradar/ingest/internal/runlog"
	"launchradar/ingest/internal/server/api"
	"launchradar/ingest/internal/store"
)

// apiKeyMiddleware checks the X-API-Key header against the configured key.
// An empty configured key disables authentication.
func apiKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get("X-API-Key")
			if got == "" {
				http.Error(w, "API key required", http.StatusUnauthorized)
				return
			}
			if got != apiKey {
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Handler builds the full route table with logging middleware. The health
// endpoint stays outside the API key check so probes work unauthenticated.
func Handler(db *database.DB, st *store.Store, recorder *runlog.Recorder, trigger api.Trigger, logger zerolog.Logger, apiKey string) http.Handler {
	newsHandler := api.NewNewsHandler(st)
	runsHandler := api.NewRunsHandler(recorder)
	triggerHandler := api.NewTriggerHandler(trigger)
	collectionsHandler := api.NewCollectionsHandler(st)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/news", newsHandler.List)
	mux.HandleFunc("GET /v1/trending", collectionsHandler.Trending)
	mux.HandleFunc("GET /v1/top-products", collectionsHandler.TopProducts)
	mux.HandleFunc("GET /v1/coins", collectionsHandler.Coins)
	mux.HandleFunc("GET /v1/airdrops", collectionsHandler.Airdrops)
	mux.HandleFunc("GET /v1/run-logs", runsHandler.List)
	mux.HandleFunc("GET /v1/run-logs/summary", runsHandler.Summary)
	mux.HandleFunc("GET /v1/jobs", triggerHandler.List)
	mux.HandleFunc("POST /v1/jobs/{job}/run", triggerHandler.Run)

	var protected http.Handler = mux
	if apiKey != "" {
		protected = apiKeyMiddleware(apiKey)(mux)
		logger.Info().Msg("API key authentication enabled")
	} else {
		logger.Info().Msg("API key authentication disabled")
	}

	outer := http.NewServeMux()
	outer.HandleFunc("GET /health", healthCheckHandler(db))
	outer.Handle("/", protected)

	h := hlog.NewHandler(logger)(outer)
	h = hlog.MethodHandler("method")(h)
	h = hlog.URLHandler("url")(h)
	h = hlog.RemoteAddrHandler("remote_addr")(h)
	h = hlog.RequestIDHandler("req_id", "Request-Id")(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP Request")
	})(h)

	return h
}

// Run serves the handler until ctx is canceled, then shuts down gracefully.
func Run(ctx context.Context, handler http.Handler, listenAddr string, logger zerolog.Logger) error {
	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", listenAddr).Msg("API server starting")
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
			return httpServer.Close()
		}
		logger.Info().Msg("HTTP server shutdown complete")
		return nil
	}
}

// healthCheckHandler reports liveness, including a database ping.
func healthCheckHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("Health check database ping failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}
