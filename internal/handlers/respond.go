// Package handlers contains the HTTP handlers of the notes API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"notas-ai/internal/contextutil"
	"notas-ai/internal/search"
	"notas-ai/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

// writeServiceError maps service layer errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "validation failed", "field", validationErr.Field, "error", err)
		writeError(w, http.StatusBadRequest, validationErr.Error())
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	logger.ErrorContext(ctx, "request failed", "error", err)

	// Infrastructure failures get their own status codes so clients can
	// tell a bad request from a dependency being down.
	switch {
	case errors.Is(err, search.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Search index unavailable")
	case errors.Is(err, search.ErrEmbedding), errors.Is(err, service.ErrExternalService):
		writeError(w, http.StatusBadGateway, "External service error")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
