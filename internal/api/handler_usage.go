package api

import (
	"net/http"
	"strconv"

	"dotasync/internal/domain"
)

func (h *APIHandler) handleUsageSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.usage.Summary(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *APIHandler) handleUsageDaily(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, domain.ErrValidation("days must be a non-negative integer"))
			return
		}
		days = n
	}

	rows, err := h.usage.Daily(r.Context(), days)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if rows == nil {
		rows = []domain.DailyUsage{}
	}
	h.writeJSON(w, http.StatusOK, rows)
}
