package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dotasync/internal/domain"
	"dotasync/internal/middleware"
)

func (h *APIHandler) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountFromContext(r.Context())
	if !ok {
		h.writeError(w, domain.ErrValidation("missing account"))
		return
	}

	// An empty body means the default job type.
	var body triggerSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	job, err := h.sync.Trigger(r.Context(), accountID, domain.TriggerSyncRequest{
		JobType: domain.JobType(body.JobType),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, syncJobToAPI(job))
}

func (h *APIHandler) handleCancelSync(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	job, err := h.sync.Cancel(r.Context(), jobID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, syncJobToAPI(job))
}

func (h *APIHandler) handleCancelAll(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.AccountFromContext(r.Context())

	results, err := h.sync.CancelAll(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cancelResultsToAPI(results))
}

func (h *APIHandler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.AccountFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, domain.ErrValidation("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	jobs, err := h.sync.Jobs(r.Context(), accountID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, syncJobsToAPI(jobs))
}

func (h *APIHandler) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := jobIDParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	job, err := h.sync.Job(r.Context(), jobID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, syncJobToAPI(job))
}

func (h *APIHandler) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	accountID, _ := middleware.AccountFromContext(r.Context())

	status, err := h.sync.Status(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, SyncStatusResponse{
		IsSyncing: status.IsSyncing,
		ActiveJob: syncJobToAPI(status.ActiveJob),
	})
}

func jobIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "jobID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation("invalid job ID: %q", raw)
	}
	return id, nil
}
