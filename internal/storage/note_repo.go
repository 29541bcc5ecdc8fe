package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_note_store.go -package=mocks notas-ai/internal/storage NoteStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// NoteStore defines the interface for note storage operations.
type NoteStore interface {
	// Create inserts a new note and sets its generated ID and timestamps.
	Create(ctx context.Context, note *Note) error
	// GetByID returns a note by ID, or ErrNotFound.
	GetByID(ctx context.Context, id int) (*Note, error)
	// List returns notes ordered by most recently updated. An empty
	// category matches all notes; limit <= 0 means no limit.
	List(ctx context.Context, category string, limit int) ([]Note, error)
	// Update overwrites a note's mutable fields, or returns ErrNotFound.
	Update(ctx context.Context, note *Note) error
	// Delete removes a note by ID, or returns ErrNotFound.
	Delete(ctx context.Context, id int) error
}

// NoteRepo provides methods for note operations.
// It implements the NoteStore interface.
type NoteRepo struct {
	db *sql.DB
}

// NewNoteRepo creates a new NoteRepo.
func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

// Create inserts a new note and sets its generated ID and timestamps.
func (r *NoteRepo) Create(ctx context.Context, note *Note) error {
	if note.Category == "" {
		note.Category = "general"
	}
	if note.Source == "" {
		note.Source = "manual"
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (title, content, category, tags, source, audio_path)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		note.Title, note.Content, note.Category, joinTags(note.Tags), note.Source, note.AudioPath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted note id: %w", err)
	}
	note.ID = int(id)

	created, err := r.GetByID(ctx, note.ID)
	if err != nil {
		return fmt.Errorf("failed to reload created note: %w", err)
	}
	note.CreatedAt = created.CreatedAt
	note.UpdatedAt = created.UpdatedAt
	return nil
}

// GetByID returns a note by ID, or ErrNotFound.
func (r *NoteRepo) GetByID(ctx context.Context, id int) (*Note, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, content, category, tags, source, audio_path, created_at, updated_at
		 FROM notes WHERE id = ?`, id)

	note, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query note: %w", err)
	}
	return note, nil
}

// List returns notes ordered by most recently updated.
func (r *NoteRepo) List(ctx context.Context, category string, limit int) ([]Note, error) {
	query := `SELECT id, title, content, category, tags, source, audio_path, created_at, updated_at
		 FROM notes`
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY updated_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var notes []Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return notes, nil
}

// Update overwrites a note's mutable fields, or returns ErrNotFound.
func (r *NoteRepo) Update(ctx context.Context, note *Note) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, category = ?, tags = ?,
		 source = ?, audio_path = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		note.Title, note.Content, note.Category, joinTags(note.Tags),
		note.Source, note.AudioPath, note.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a note by ID, or returns ErrNotFound.
func (r *NoteRepo) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*Note, error) {
	var note Note
	var tags string
	var audioPath sql.NullString
	var createdAtStr, updatedAtStr string

	err := s.Scan(&note.ID, &note.Title, &note.Content, &note.Category,
		&tags, &note.Source, &audioPath, &createdAtStr, &updatedAtStr)
	if err != nil {
		return nil, err
	}

	note.Tags = splitTags(tags)
	note.AudioPath = audioPath.String

	note.CreatedAt, err = parseTimestamp(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	note.UpdatedAt, err = parseTimestamp(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}
	return &note, nil
}

// parseTimestamp handles both SQLite DATETIME formats.
func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", value)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func joinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return strings.Join(cleaned, ",")
}

func splitTags(value string) []string {
	if value == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(value, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
