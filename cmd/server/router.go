package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kotoba-learn/kotoba-api/internal/api"
	apiMiddleware "github.com/kotoba-learn/kotoba-api/internal/api/middleware"
	"github.com/kotoba-learn/kotoba-api/internal/metrics"
)

const healthCheckTimeout = 2 * time.Second

// setupRouter creates the application router from the application's services.
func (app *application) setupRouter() http.Handler {
	textbookHandler := api.NewTextbookHandler(app.textbookService, app.statusService, app.logger)
	return newRouter(textbookHandler, app.metrics, app.db.PingContext, app.logger)
}

// newRouter wires middleware, the textbook API, health and metrics endpoints.
// ping reports whether the database is reachable.
func newRouter(
	textbookHandler *api.TextbookHandler,
	m *metrics.Metrics,
	ping func(ctx context.Context) error,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(logger))
	r.Use(middleware.Recoverer)

	r.Route("/api", textbookHandler.RegisterRoutes)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			logger.Warn("Health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("Failed to write health check response", "error", err)
		}
	})

	r.Handle("/metrics", m.Handler())

	return r
}
