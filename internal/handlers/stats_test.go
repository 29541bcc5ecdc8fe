package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"notas-ai/internal/search"
)

type fakeStatsProvider struct {
	stats *search.Statistics
	err   error
}

func (f *fakeStatsProvider) Statistics(ctx context.Context) (*search.Statistics, error) {
	return f.stats, f.err
}

func TestStatsHandler(t *testing.T) {
	handler := NewStatsHandler(&fakeStatsProvider{
		stats: &search.Statistics{
			TotalChunks:   12,
			ChunkTypes:    map[string]int{"title": 4, "semantic": 8},
			Categories:    []string{"general", "trabajo"},
			AvgImportance: 0.62,
			IndexHealth:   "healthy",
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Stats status = %v, want %v", w.Code, http.StatusOK)
	}

	var resp search.Statistics
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalChunks != 12 || resp.IndexHealth != "healthy" {
		t.Errorf("response = %+v", resp)
	}
}

func TestStatsHandler_Error(t *testing.T) {
	handler := NewStatsHandler(&fakeStatsProvider{err: fmt.Errorf("failed to scan index: %w", search.ErrStoreUnavailable)})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Stats status = %v, want %v", w.Code, http.StatusServiceUnavailable)
	}
}
