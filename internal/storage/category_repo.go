package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// CategoryRepo provides methods for category operations.
type CategoryRepo struct {
	db *sql.DB
}

// NewCategoryRepo creates a new CategoryRepo.
func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// List returns all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var categories []Category
	for rows.Next() {
		var c Category
		var createdAtStr string
		if err := rows.Scan(&c.ID, &c.Name, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.CreatedAt, err = parseTimestamp(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// Ensure creates a category if it does not already exist.
func (r *CategoryRepo) Ensure(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO categories (name) VALUES (?)", name)
	if err != nil {
		return fmt.Errorf("failed to ensure category: %w", err)
	}
	return nil
}
