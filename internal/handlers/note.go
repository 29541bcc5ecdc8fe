package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"notas-ai/internal/contextutil"
	"notas-ai/internal/service"
	"notas-ai/internal/storage"
)

// NoteHandler serves the note CRUD endpoints.
type NoteHandler struct {
	notes *service.NotesService
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(notes *service.NotesService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// NoteRequest is the request payload for creating or updating a note.
type NoteRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Source   string   `json:"source,omitempty"`
}

// NoteResponse is one note in API responses.
type NoteResponse struct {
	ID        int      `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	Source    string   `json:"source"`
	AudioPath string   `json:"audio_path,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// CategoryResponse is one category in API responses.
type CategoryResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func toNoteResponse(note *storage.Note) NoteResponse {
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	return NoteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		Category:  note.Category,
		Tags:      tags,
		Source:    note.Source,
		AudioPath: note.AudioPath,
		CreatedAt: note.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: note.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// List returns notes, optionally filtered by ?category= and capped by ?limit=.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	notes, err := h.notes.ListNotes(ctx, r.URL.Query().Get("category"), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]NoteResponse, 0, len(notes))
	for i := range notes {
		resp = append(resp, toNoteResponse(&notes[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create stores a new note and indexes it.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note := &storage.Note{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
		Source:   req.Source,
	}
	if err := h.notes.CreateNote(ctx, note); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteResponse(note))
}

// Get returns one note by ID.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	note, err := h.notes.GetNote(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

// Update overwrites a note and reindexes it.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := noteID(w, r)
	if !ok {
		return
	}

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note := &storage.Note{
		ID:       id,
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
		Source:   req.Source,
	}
	if err := h.notes.UpdateNote(ctx, note); err != nil {
		writeServiceError(w, r, err)
		return
	}

	updated, err := h.notes.GetNote(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(updated))
}

// Delete removes a note and its indexed chunks.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	if err := h.notes.DeleteNote(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Categories lists the known note categories.
func (h *NoteHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.notes.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, CategoryResponse{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

func noteID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid note ID")
		return 0, false
	}
	return id, true
}
