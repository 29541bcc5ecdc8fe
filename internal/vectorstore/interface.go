package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks notas-ai/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents one point returned by a similarity search or a
// metadata scroll. Score is the similarity for search results and zero for
// scrolled points.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore is the chunk index contract: insert, delete, similarity
// query, and metadata-filtered scan. Filters map metadata keys to exact
// match values (ints, bools, and strings).
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search with optional metadata filters.
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)

	// Scroll retrieves points by metadata filter without a query vector.
	// limit <= 0 retrieves every matching point.
	Scroll(ctx context.Context, collection string, filters map[string]any, limit int) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error
}
