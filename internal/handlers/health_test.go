package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeCollectionChecker struct {
	exists bool
	err    error
}

func (f *fakeCollectionChecker) CollectionExists(ctx context.Context, collection string) (bool, error) {
	return f.exists, f.err
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		checker    *fakeCollectionChecker
		wantStatus int
		wantHealth string
	}{
		{
			name:       "healthy",
			checker:    &fakeCollectionChecker{exists: true},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
		},
		{
			name:       "collection missing",
			checker:    &fakeCollectionChecker{exists: false},
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
		},
		{
			name:       "vector store unreachable",
			checker:    &fakeCollectionChecker{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantHealth: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.checker, "notas")

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Health status = %v, want %v", w.Code, tt.wantStatus)
			}

			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantHealth {
				t.Errorf("Status = %q, want %q", resp.Status, tt.wantHealth)
			}
			if resp.Checks["vector_store"] == "" {
				t.Error("vector_store check missing from response")
			}
		})
	}
}
