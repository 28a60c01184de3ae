package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/hmcoe/skillprofile/internal/admin"
	"github.com/hmcoe/skillprofile/internal/form"
	"github.com/hmcoe/skillprofile/pkg/profiling"
)

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Section *int   `json:"section,omitempty"`
}

// writeError maps the client error taxonomy onto HTTP codes, preserving
// server-supplied and validation messages verbatim.
func writeError(w http.ResponseWriter, err error) {
	var ve *form.ValidationError
	if errors.As(err, &ve) {
		section := int(ve.Section)
		writeJSON(w, errorResponse{Error: ve.Message, Code: ve.Code, Section: &section}, http.StatusBadRequest)
		return
	}

	var apiErr *profiling.APIError
	switch {
	case errors.Is(err, profiling.ErrNotFound):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusNotFound)
	case errors.Is(err, profiling.ErrForbidden):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusForbidden)
	case errors.Is(err, admin.ErrNotAuthenticated):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusUnauthorized)
	case errors.Is(err, profiling.ErrUnauthorized):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusUnauthorized)
	case errors.Is(err, profiling.ErrCircuitOpen):
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusServiceUnavailable)
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		writeJSON(w, errorResponse{Error: apiErr.Error()}, status)
	default:
		writeJSON(w, errorResponse{Error: err.Error()}, http.StatusInternalServerError)
	}
}
