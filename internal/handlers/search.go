package handlers

import (
	"encoding/json"
	"net/http"

	"notas-ai/internal/contextutil"
	"notas-ai/internal/search"
	"notas-ai/internal/service"
)

// maxSearchResults bounds user-provided top_k.
const maxSearchResults = 20

// SearchHandler handles HTTP requests for hybrid note search.
type SearchHandler struct {
	searcher service.Searcher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searcher service.Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// SearchRequest is the request payload for searches.
type SearchRequest struct {
	Query    string `json:"query"`
	TopK     int    `json:"top_k,omitempty"`
	Category string `json:"category,omitempty"`
}

// SearchResponse is the response payload for searches.
type SearchResponse struct {
	Results []search.Result `json:"results"`
	Count   int             `json:"count"`
}

// ServeHTTP runs a hybrid search over the indexed notes.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if req.TopK < 0 {
		req.TopK = 0
	}
	if req.TopK > maxSearchResults {
		req.TopK = maxSearchResults
	}

	var filters map[string]any
	if req.Category != "" {
		filters = map[string]any{"category": req.Category}
	}

	results, err := h.searcher.SearchOptimized(ctx, req.Query, req.TopK, filters)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{Results: results, Count: len(results)})
}
