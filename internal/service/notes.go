package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_indexer.go -package=mocks notas-ai/internal/service Indexer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"notas-ai/internal/contextutil"
	"notas-ai/internal/search"
	"notas-ai/internal/storage"
)

// Indexer maintains the chunk index for notes. This interface is defined
// from the service layer's perspective (consumer-first).
type Indexer interface {
	// IndexNote replaces the indexed chunks of a note.
	IndexNote(ctx context.Context, note search.Note) error
	// DeleteNoteChunks removes every indexed chunk of a note.
	DeleteNoteChunks(ctx context.Context, noteID int) error
}

// CategoryStore provides category persistence.
type CategoryStore interface {
	List(ctx context.Context) ([]storage.Category, error)
	Ensure(ctx context.Context, name string) error
}

// NotesService orchestrates note persistence and chunk indexing. Index
// updates for the same note are serialized through a per-note lock so a
// delete-then-reinsert cycle can never interleave with another writer.
type NotesService struct {
	notes      storage.NoteStore
	categories CategoryStore
	indexer    Indexer
	logger     *slog.Logger

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

// NewNotesService creates a new NotesService.
func NewNotesService(notes storage.NoteStore, categories CategoryStore, indexer Indexer) *NotesService {
	return &NotesService{
		notes:      notes,
		categories: categories,
		indexer:    indexer,
		logger:     slog.Default(),
		locks:      make(map[int]*sync.Mutex),
	}
}

func (s *NotesService) getLogger(ctx context.Context) *slog.Logger {
	if logger := contextutil.LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return s.logger
}

// noteLock returns the mutex serializing index writes for one note.
// Mutexes are kept for the life of the process; a personal note corpus is
// small enough that this never matters.
func (s *NotesService) noteLock(id int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// CreateNote validates and persists a note, then indexes it. An indexing
// failure does not fail the create: the note is saved and the index
// catches up on the next reindex.
func (s *NotesService) CreateNote(ctx context.Context, note *storage.Note) error {
	logger := s.getLogger(ctx)

	if note.Title == "" {
		return &ValidationError{Field: "title", Message: "cannot be empty"}
	}

	if err := s.notes.Create(ctx, note); err != nil {
		return WrapError(err, "failed to create note")
	}
	if err := s.categories.Ensure(ctx, note.Category); err != nil {
		logger.WarnContext(ctx, "failed to register category", "category", note.Category, "error", err)
	}

	s.indexNote(ctx, note)
	return nil
}

// UpdateNote validates and persists changes to a note, then reindexes it.
func (s *NotesService) UpdateNote(ctx context.Context, note *storage.Note) error {
	logger := s.getLogger(ctx)

	if note.ID == 0 {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	if note.Title == "" {
		return &ValidationError{Field: "title", Message: "cannot be empty"}
	}

	if err := s.notes.Update(ctx, note); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return WrapError(err, "failed to update note")
	}
	if err := s.categories.Ensure(ctx, note.Category); err != nil {
		logger.WarnContext(ctx, "failed to register category", "category", note.Category, "error", err)
	}

	s.indexNote(ctx, note)
	return nil
}

// DeleteNote removes a note and its indexed chunks.
func (s *NotesService) DeleteNote(ctx context.Context, id int) error {
	logger := s.getLogger(ctx)

	if err := s.notes.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return WrapError(err, "failed to delete note")
	}

	lock := s.noteLock(id)
	lock.Lock()
	defer lock.Unlock()
	if err := s.indexer.DeleteNoteChunks(ctx, id); err != nil {
		logger.ErrorContext(ctx, "failed to remove note from index", "note_id", id, "error", err)
	}
	return nil
}

// GetNote returns a note by ID.
func (s *NotesService) GetNote(ctx context.Context, id int) (*storage.Note, error) {
	note, err := s.notes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, WrapError(err, "failed to get note")
	}
	return note, nil
}

// ListNotes returns notes, optionally filtered by category.
func (s *NotesService) ListNotes(ctx context.Context, category string, limit int) ([]storage.Note, error) {
	notes, err := s.notes.List(ctx, category, limit)
	if err != nil {
		return nil, WrapError(err, "failed to list notes")
	}
	return notes, nil
}

// ListCategories returns all categories.
func (s *NotesService) ListCategories(ctx context.Context) ([]storage.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list categories")
	}
	return categories, nil
}

// ReindexAll rebuilds the chunk index for every stored note. Individual
// failures are logged and skipped so one bad note cannot block the rest.
// It returns the number of notes indexed.
func (s *NotesService) ReindexAll(ctx context.Context) (int, error) {
	logger := s.getLogger(ctx)

	notes, err := s.notes.List(ctx, "", 0)
	if err != nil {
		return 0, WrapError(err, "failed to list notes for reindex")
	}

	indexed := 0
	for i := range notes {
		note := &notes[i]
		lock := s.noteLock(note.ID)
		lock.Lock()
		err := s.indexer.IndexNote(ctx, toSearchNote(note))
		lock.Unlock()
		if err != nil {
			logger.ErrorContext(ctx, "failed to reindex note", "note_id", note.ID, "error", err)
			continue
		}
		indexed++
	}

	logger.InfoContext(ctx, "reindex completed", "total", len(notes), "indexed", indexed)
	return indexed, nil
}

func (s *NotesService) indexNote(ctx context.Context, note *storage.Note) {
	logger := s.getLogger(ctx)

	lock := s.noteLock(note.ID)
	lock.Lock()
	defer lock.Unlock()
	if err := s.indexer.IndexNote(ctx, toSearchNote(note)); err != nil {
		logger.ErrorContext(ctx, "failed to index note", "note_id", note.ID, "error", err)
	}
}

func toSearchNote(note *storage.Note) search.Note {
	return search.Note{
		ID:       note.ID,
		Title:    note.Title,
		Content:  note.Content,
		Category: note.Category,
		Tags:     note.Tags,
		Source:   note.Source,
	}
}
