// Package api provides HTTP handlers for the sync orchestration REST API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dotasync/internal/middleware"
	"dotasync/internal/service/sync"
	"dotasync/internal/service/usage"
)

// APIHandler holds the service dependencies behind the REST surface.
type APIHandler struct {
	sync   *sync.Service
	usage  *usage.Service
	logger *slog.Logger
}

// NewHandler creates a new APIHandler with all required service dependencies.
func NewHandler(syncSvc *sync.Service, usageSvc *usage.Service, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		sync:   syncSvc,
		usage:  usageSvc,
		logger: logger.With("component", "api"),
	}
}

// Routes mounts all v1 routes plus the health check onto r. Sync routes
// require the X-Account-ID header; usage routes aggregate across accounts
// and do not.
func (h *APIHandler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/sync", func(r chi.Router) {
			r.Use(middleware.RequireAccount)
			r.Post("/trigger", h.handleTriggerSync)
			r.Post("/cancel/{jobID}", h.handleCancelSync)
			r.Post("/cancel-all", h.handleCancelAll)
			r.Get("/jobs", h.handleListJobs)
			r.Get("/jobs/{jobID}", h.handleGetJob)
			r.Get("/status", h.handleSyncStatus)
		})
		r.Route("/api-usage", func(r chi.Router) {
			r.Get("/summary", h.handleUsageSummary)
			r.Get("/daily", h.handleUsageDaily)
		})
	})
}

func (h *APIHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
