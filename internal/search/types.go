// Package search indexes note chunks into a vector store and answers
// natural-language queries with hybrid semantic + keyword retrieval.
package search

import (
	"errors"

	"notas-ai/internal/keywords"
)

// Dependency failure sentinels. Callers branch on these with errors.Is to
// map failures to the right HTTP status instead of parsing error text.
var (
	// ErrStoreUnavailable marks vector store failures.
	ErrStoreUnavailable = errors.New("chunk index unavailable")
	// ErrEmbedding marks embedding service failures.
	ErrEmbedding = errors.New("embedding service failed")
)

// Metadata keys stored flat on every indexed point. The store is a flat
// key-value payload, so sets are serialized with the keywords package.
const (
	metaNoteID          = "note_id"
	metaTitle           = "title"
	metaCategory        = "category"
	metaTags            = "tags"
	metaSource          = "source"
	metaText            = "text"
	metaStart           = "start"
	metaEnd             = "end"
	metaChunkType       = "chunk_type"
	metaWordCount       = "word_count"
	metaCharCount       = "char_count"
	metaPosition        = "position"
	metaKeywords        = "keywords"
	metaKeywordCount    = "keyword_count"
	metaSemanticDensity = "semantic_density"
	metaImportance      = "importance"
	metaHasEntities     = "has_entities"
	metaHasNumbers      = "has_numbers"
	metaHasDates        = "has_dates"
	metaMerged          = "merged"
	metaCreatedAt       = "created_at"
)

// SourceImport marks notes imported from markdown files; their content is
// flattened to prose before chunking.
const SourceImport = "import"

// Note is the indexing input supplied by the note repository.
type Note struct {
	ID       int
	Title    string
	Content  string
	Category string
	Tags     []string
	Source   string
}

// Result is one search hit. There is at most one Result per note: the
// highest-scoring chunk of each note wins and supplies the metadata.
type Result struct {
	NoteID        int            `json:"note_id"`
	Title         string         `json:"title"`
	Category      string         `json:"category"`
	Snippet       string         `json:"snippet"`
	SemanticScore float64        `json:"semantic_score"`
	KeywordScore  float64        `json:"keyword_score"`
	FinalScore    float64        `json:"final_score"`
	ChunkType     string         `json:"chunk_type"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Statistics summarizes the state of the chunk index. Diagnostic only.
type Statistics struct {
	TotalChunks   int            `json:"total_chunks"`
	ChunkTypes    map[string]int `json:"chunk_types"`
	Categories    []string       `json:"categories"`
	AvgImportance float64        `json:"avg_importance"`
	IndexHealth   string         `json:"index_health"`
}

// metaString reads a string metadata field, defaulting to empty.
func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

// metaInt reads an integer metadata field. Qdrant returns integers as
// int64; zero means missing.
func metaInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// metaFloat reads a numeric metadata field with a fallback for missing or
// malformed values. Stored metadata is user-derived and must never make a
// search fail.
func metaFloat(meta map[string]any, key string, fallback float64) float64 {
	switch v := meta[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return fallback
}

func metaBool(meta map[string]any, key string) bool {
	if v, ok := meta[key].(bool); ok {
		return v
	}
	return false
}

// chunkKeywords parses the serialized keyword set of a stored chunk.
// Malformed data degrades to an empty set.
func chunkKeywords(meta map[string]any) keywords.Set {
	return keywords.Parse(metaString(meta, metaKeywords))
}
