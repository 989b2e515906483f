package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorResponse is the JSON shape of every error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v with the given status. Encoding failures are logged
// only; the status line has already been written.
func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", slog.Any("error", err))
	}
}

// writeError maps a domain error to its HTTP status and writes the error
// body. Internal errors are logged with the original error and returned
// with a generic message.
func (h *APIHandler) writeError(w http.ResponseWriter, err error) {
	status := httpStatusFromDomainError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", slog.Any("error", err))
		msg = "internal server error"
	}
	h.writeJSON(w, status, errorResponse{Code: status, Message: msg})
}
