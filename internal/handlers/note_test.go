package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"notas-ai/internal/service"
	service_mocks "notas-ai/internal/service/mocks"
	"notas-ai/internal/storage"
	storage_mocks "notas-ai/internal/storage/mocks"
)

type fakeCategoryStore struct {
	categories []storage.Category
	ensured    []string
}

func (f *fakeCategoryStore) List(ctx context.Context) ([]storage.Category, error) {
	return f.categories, nil
}

func (f *fakeCategoryStore) Ensure(ctx context.Context, name string) error {
	f.ensured = append(f.ensured, name)
	return nil
}

func newNoteTestHandler(t *testing.T) (*NoteHandler, *storage_mocks.MockNoteStore, *service_mocks.MockIndexer, *fakeCategoryStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	noteStore := storage_mocks.NewMockNoteStore(ctrl)
	indexer := service_mocks.NewMockIndexer(ctrl)
	categories := &fakeCategoryStore{}

	svc := service.NewNotesService(noteStore, categories, indexer)
	return NewNoteHandler(svc), noteStore, indexer, categories
}

// noteRouter mounts the handler under the same routes as the real router so
// chi URL params resolve.
func noteRouter(h *NoteHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/notes", h.List)
	r.Post("/api/notes", h.Create)
	r.Get("/api/notes/{id}", h.Get)
	r.Put("/api/notes/{id}", h.Update)
	r.Delete("/api/notes/{id}", h.Delete)
	r.Get("/api/categories", h.Categories)
	return r
}

func TestNoteHandler_Create(t *testing.T) {
	handler, noteStore, indexer, categories := newNoteTestHandler(t)

	noteStore.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, note *storage.Note) error {
			note.ID = 42
			note.CreatedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
			note.UpdatedAt = note.CreatedAt
			return nil
		})
	indexer.EXPECT().IndexNote(gomock.Any(), gomock.Any()).Return(nil)

	body, _ := json.Marshal(NoteRequest{
		Title:    "Reunión con Carlos",
		Content:  "Revisamos el avance del proyecto alpha.",
		Category: "trabajo",
		Tags:     []string{"reunión", "alpha"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/notes", bytes.NewReader(body))
	w := httptest.NewRecorder()

	noteRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Create status = %v, want %v, body: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp NoteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != 42 {
		t.Errorf("response ID = %v, want 42", resp.ID)
	}
	if resp.Title != "Reunión con Carlos" {
		t.Errorf("response Title = %q", resp.Title)
	}
	if len(categories.ensured) != 1 || categories.ensured[0] != "trabajo" {
		t.Errorf("ensured categories = %v, want [trabajo]", categories.ensured)
	}
}

func TestNoteHandler_Create_MissingTitle(t *testing.T) {
	handler, _, _, _ := newNoteTestHandler(t)

	body, _ := json.Marshal(NoteRequest{Content: "sin título"})
	req := httptest.NewRequest(http.MethodPost, "/api/notes", bytes.NewReader(body))
	w := httptest.NewRecorder()

	noteRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Create status = %v, want %v", w.Code, http.StatusBadRequest)
	}
}

func TestNoteHandler_Create_InvalidBody(t *testing.T) {
	handler, _, _, _ := newNoteTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/notes", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()

	noteRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Create status = %v, want %v", w.Code, http.StatusBadRequest)
	}
}

func TestNoteHandler_Get(t *testing.T) {
	handler, noteStore, _, _ := newNoteTestHandler(t)

	noteStore.EXPECT().GetByID(gomock.Any(), 7).Return(&storage.Note{
		ID:       7,
		Title:    "Idea para vacaciones",
		Content:  "Viajar a Oaxaca en diciembre.",
		Category: "personal",
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/notes/7", nil)
	w := httptest.NewRecorder()

	noteRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Get status = %v, want %v", w.Code, http.StatusOK)
	}

	var resp NoteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != 7 || resp.Category != "personal" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Tags == nil {
		t.Error("Tags should serialize as an empty array, not null")
	}
}

func TestNoteHandler_Get_NotFound(t *testing.T) {
	handler, noteStore, _, _ := newNoteTestHandler(t)

	noteStore.EXPECT().GetByID(gomock.Any(), 99).Return(nil, storage.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/api/notes/99", nil)
	w := httptest.NewRecorder()

	noteRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Get status = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestNoteHandler_Get_InvalidID(t *testing.T) {
	handler, _, _, _ := newNoteTestHandler(t)

	tests := []string{"abc", "0", "-3"}
	for _, id := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/notes/"+id, nil)
		w := httptest.NewRecorder()

		noteRouter(handler).ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Get(%q) status = %v, want %v", id, w.Code, http.StatusBadRequest)
		}
	}
}

func TestNoteHandler_List(t *testing.T) {
	handler, noteStore, _, _ := newNoteTestHandler(t)

	noteStore.EXPECT().List(gomock.Any(), "trabajo", 10).Return([]storage.Note{
		{ID: 2, Title: "Nota dos", Category: "trabajo"},
		{ID: 1, Title: "Nota uno", Category: "trabajo"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/notes?category=trabajo&limit=10", nil)
	w := httptest.NewRecorder()

	noteRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("List status = %v, want %v", w.Code, http.StatusOK)
	}

	var resp []NoteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("List returned %d notes, want 2", len(resp))
	}
	if resp[0].ID != 2 {
		t.Errorf("first note ID = %v, want 2", resp[0].ID)
	}
}

func TestNoteHandler_List_InvalidLimit(t *testing.T) {
	handler, _, _, _ := newNoteTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/notes?limit=nope", nil)
	w := httptest.NewRecorder()

	noteRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("List status = %v, want %v", w.Code, http.StatusBadRequest)
	}
}

func TestNoteHandler_Update(t *testing.T) {
	handler, noteStore, indexer, _ := newNoteTestHandler(t)

	noteStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
	indexer.EXPECT().IndexNote(gomock.Any(), gomock.Any()).Return(nil)
	noteStore.EXPECT().GetByID(gomock.Any(), 5).Return(&storage.Note{
		ID:    5,
		Title: "Título actualizado",
	}, nil)

	body, _ := json.Marshal(NoteRequest{Title: "Título actualizado", Content: "nuevo contenido"})
	req := httptest.NewRequest(http.MethodPut, "/api/notes/5", bytes.NewReader(body))
	w := httptest.NewRecorder()

	noteRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Update status = %v, want %v, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp NoteResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Title != "Título actualizado" {
		t.Errorf("response Title = %q", resp.Title)
	}
}

func TestNoteHandler_Update_NotFound(t *testing.T) {
	handler, noteStore, _, _ := newNoteTestHandler(t)

	noteStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(storage.ErrNotFound)

	body, _ := json.Marshal(NoteRequest{Title: "algo"})
	req := httptest.NewRequest(http.MethodPut, "/api/notes/123", bytes.NewReader(body))
	w := httptest.NewRecorder()

	noteRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Update status = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestNoteHandler_Delete(t *testing.T) {
	handler, noteStore, indexer, _ := newNoteTestHandler(t)

	noteStore.EXPECT().Delete(gomock.Any(), 3).Return(nil)
	indexer.EXPECT().DeleteNoteChunks(gomock.Any(), 3).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/notes/3", nil)
	w := httptest.NewRecorder()

	noteRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Delete status = %v, want %v", w.Code, http.StatusNoContent)
	}
}

func TestNoteHandler_Delete_NotFound(t *testing.T) {
	handler, noteStore, _, _ := newNoteTestHandler(t)

	noteStore.EXPECT().Delete(gomock.Any(), 8).Return(storage.ErrNotFound)

	req := httptest.NewRequest(http.MethodDelete, "/api/notes/8", nil)
	w := httptest.NewRecorder()

	noteRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Delete status = %v, want %v", w.Code, http.StatusNotFound)
	}
}

func TestNoteHandler_Categories(t *testing.T) {
	handler, _, _, categories := newNoteTestHandler(t)
	categories.categories = []storage.Category{
		{ID: 1, Name: "general"},
		{ID: 2, Name: "trabajo"},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	w := httptest.NewRecorder()

	noteRouter(handler).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Categories status = %v, want %v", w.Code, http.StatusOK)
	}

	var resp []CategoryResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 2 || resp[1].Name != "trabajo" {
		t.Errorf("categories = %+v", resp)
	}
}
