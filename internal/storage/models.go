package storage

import "time"

// Note is a stored note. Tags are persisted as a comma-joined string and
// exposed as a slice.
type Note struct {
	ID        int
	Title     string
	Content   string
	Category  string
	Tags      []string
	Source    string // "manual", "import", or "audio"
	AudioPath string // Path to the source recording, empty for text notes
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category is a note category.
type Category struct {
	ID        int
	Name      string
	CreatedAt time.Time
}
