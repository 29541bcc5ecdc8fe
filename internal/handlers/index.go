package handlers

import (
	"context"
	"net/http"

	"notas-ai/internal/contextutil"
)

// Reindexer rebuilds the chunk index from stored notes.
type Reindexer interface {
	ReindexAll(ctx context.Context) (int, error)
}

// IndexHandler handles HTTP requests for triggering re-indexing.
type IndexHandler struct {
	reindexer Reindexer
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(reindexer Reindexer) *IndexHandler {
	return &IndexHandler{reindexer: reindexer}
}

// IndexResponse represents the response from the index endpoint.
type IndexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP triggers a full re-index of all notes.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	logger.InfoContext(ctx, "re-indexing triggered via API")

	// Indexing runs in a goroutine with a background context so it
	// survives the HTTP request.
	go func() {
		indexCtx := context.Background()
		indexed, err := h.reindexer.ReindexAll(indexCtx)
		if err != nil {
			logger.ErrorContext(indexCtx, "re-indexing failed", "error", err)
			return
		}
		logger.InfoContext(indexCtx, "re-indexing completed", "indexed", indexed)
	}()

	writeJSON(w, http.StatusAccepted, IndexResponse{
		Message: "Indexing started. Check server logs for progress.",
		Status:  "accepted",
	})
}
