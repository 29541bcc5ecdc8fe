package handlers

import (
	"context"
	"net/http"

	"notas-ai/internal/search"
)

// StatsProvider reports chunk index statistics.
type StatsProvider interface {
	Statistics(ctx context.Context) (*search.Statistics, error)
}

// StatsHandler handles HTTP requests for index statistics.
type StatsHandler struct {
	stats StatsProvider
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(stats StatsProvider) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// ServeHTTP returns aggregate statistics about the chunk index.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Statistics(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
