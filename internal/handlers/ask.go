package handlers

import (
	"encoding/json"
	"net/http"

	"notas-ai/internal/contextutil"
	"notas-ai/internal/search"
	"notas-ai/internal/service"
)

// AskHandler handles HTTP requests for question answering over notes.
type AskHandler struct {
	ask *service.AskService
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(ask *service.AskService) *AskHandler {
	return &AskHandler{ask: ask}
}

// AskRequest represents the HTTP request payload for questions.
type AskRequest struct {
	Question string `json:"question"`
	Category string `json:"category,omitempty"`
	TopK     int    `json:"top_k,omitempty"`
}

// AskResponse represents the HTTP response payload for questions.
type AskResponse struct {
	Answer  string          `json:"answer"`
	Sources []search.Result `json:"sources"`
}

// ServeHTTP answers a question using the indexed notes as context.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TopK < 0 {
		req.TopK = 0
	}
	if req.TopK > maxSearchResults {
		req.TopK = maxSearchResults
	}

	resp, err := h.ask.Ask(ctx, service.AskRequest{
		Question: req.Question,
		Category: req.Category,
		TopK:     req.TopK,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{Answer: resp.Answer, Sources: resp.Sources})
}
