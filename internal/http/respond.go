package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"medexpense/internal/core"
)

type errorResponse struct {
	Error   string `json:"error"`
	Partial bool   `json:"partial,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain sentinels to status codes. Unrecognized errors are
// reported as opaque 500s so internals do not leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, core.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrPartialCascade):
		slog.ErrorContext(r.Context(), "Partial cascade", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "employee removed but some expenses remain",
			Partial: true,
		})
	case errors.Is(err, core.ErrTransform):
		slog.ErrorContext(r.Context(), "Image transform failed", "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "image could not be processed"})
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
