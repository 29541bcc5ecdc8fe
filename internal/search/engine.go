package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"notas-ai/internal/chunker"
	"notas-ai/internal/contextutil"
	"notas-ai/internal/keywords"
	"notas-ai/internal/vectorstore"
)

const (
	defaultTopK = 5
	// The semantic pass over-fetches so per-note deduplication still
	// leaves enough candidates, capped to bound latency.
	semanticFetchFactor = 3
	maxSemanticFetch    = 50

	importanceWeight = 0.2
	entityBonus      = 0.1

	titleBonus    = 0.3
	semanticBonus = 0.1
	mergedBonus   = 0.05
)

// Embedder converts texts into embedding vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Weights blend the two retrieval passes into the final score. They are
// expected to sum to 1.
type Weights struct {
	Semantic float64
	Keyword  float64
}

// DefaultWeights favors the semantic pass.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.7, Keyword: 0.3}
}

// Engine indexes note chunks into a vector store and retrieves them with a
// hybrid of embedding similarity and exact keyword matching.
type Engine struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	collection string
	chunker    *chunker.Chunker
	weights    Weights
	logger     *slog.Logger
}

// NewEngine creates a search engine. Zero weights fall back to defaults.
func NewEngine(embedder Embedder, store vectorstore.VectorStore, collection string, ch *chunker.Chunker, weights Weights) *Engine {
	if weights.Semantic == 0 && weights.Keyword == 0 {
		weights = DefaultWeights()
	}
	if ch == nil {
		ch = chunker.New(chunker.DefaultConfig())
	}
	return &Engine{
		embedder:   embedder,
		store:      store,
		collection: collection,
		chunker:    ch,
		weights:    weights,
		logger:     slog.Default(),
	}
}

func (e *Engine) getLogger(ctx context.Context) *slog.Logger {
	if logger := contextutil.LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return e.logger
}

// IndexNote chunks a note, embeds every chunk, and upserts the results.
// Existing chunks of the note are removed first so re-indexing never leaves
// stale points behind. Empty notes are skipped.
func (e *Engine) IndexNote(ctx context.Context, note Note) error {
	logger := e.getLogger(ctx)

	if strings.TrimSpace(note.Title) == "" && strings.TrimSpace(note.Content) == "" {
		logger.DebugContext(ctx, "skipping empty note", "note_id", note.ID)
		return nil
	}

	if err := e.DeleteNoteChunks(ctx, note.ID); err != nil {
		return fmt.Errorf("failed to clear chunks for note %d: %w", note.ID, err)
	}

	body := note.Content
	if note.Source == SourceImport {
		body = chunker.StripMarkdown(body)
	}
	chunks := e.chunker.Chunk(body, note.Title)
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]string, len(chunks))
	for i, ch := range chunks {
		docs[i] = embedText(note.Title, ch)
	}

	vectors, err := e.embedder.EmbedTexts(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to embed chunks for note %d: %w: %w", note.ID, ErrEmbedding, err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embedding count mismatch for note %d: expected %d, got %d: %w", note.ID, len(docs), len(vectors), ErrEmbedding)
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)
	points := make([]vectorstore.Point, len(chunks))
	for i, ch := range chunks {
		points[i] = vectorstore.Point{
			ID:   uuid.New().String(),
			Vec:  vectors[i],
			Meta: chunkPayload(note, ch, docs[i], createdAt),
		}
	}

	if err := e.store.Upsert(ctx, e.collection, points); err != nil {
		return fmt.Errorf("failed to index note %d: %w: %w", note.ID, ErrStoreUnavailable, err)
	}

	logger.InfoContext(ctx, "indexed note", "note_id", note.ID, "chunks", len(chunks))
	return nil
}

// DeleteNoteChunks removes every indexed chunk of a note.
func (e *Engine) DeleteNoteChunks(ctx context.Context, noteID int) error {
	points, err := e.store.Scroll(ctx, e.collection, map[string]any{metaNoteID: noteID}, 0)
	if err != nil {
		return fmt.Errorf("failed to list chunks for note %d: %w: %w", noteID, ErrStoreUnavailable, err)
	}
	if len(points) == 0 {
		return nil
	}

	ids := make([]string, 0, len(points))
	for _, p := range points {
		ids = append(ids, p.PointID)
	}
	if err := e.store.Delete(ctx, e.collection, ids); err != nil {
		return fmt.Errorf("failed to delete chunks for note %d: %w: %w", noteID, ErrStoreUnavailable, err)
	}
	return nil
}

// embedText is the text actually embedded and stored for a chunk. Body
// chunks carry a title header so their vectors encode which note they
// belong to; the title chunk already is the title.
func embedText(title string, ch chunker.Chunk) string {
	if ch.Type == chunker.TypeTitle || title == "" {
		return ch.Text
	}
	return titlePrefix + title + "\n\n" + ch.Text
}

// chunkPayload flattens a chunk into vector store metadata. Collections
// are serialized to comma-delimited strings because the payload is flat.
func chunkPayload(note Note, ch chunker.Chunk, doc, createdAt string) map[string]any {
	return map[string]any{
		metaNoteID:          note.ID,
		metaTitle:           note.Title,
		metaCategory:        note.Category,
		metaTags:            strings.Join(note.Tags, keywords.Delimiter),
		metaSource:          note.Source,
		metaText:            doc,
		metaStart:           ch.Start,
		metaEnd:             ch.End,
		metaChunkType:       string(ch.Type),
		metaWordCount:       ch.Meta.WordCount,
		metaCharCount:       ch.Meta.CharCount,
		metaPosition:        ch.Meta.Position,
		metaKeywords:        ch.Meta.Keywords.Serialize(),
		metaKeywordCount:    len(ch.Meta.Keywords),
		metaSemanticDensity: ch.Meta.SemanticDensity,
		metaImportance:      ch.Meta.Importance,
		metaHasEntities:     ch.Meta.HasEntities,
		metaHasNumbers:      ch.Meta.HasNumbers,
		metaHasDates:        ch.Meta.HasDates,
		metaMerged:          ch.Meta.Merged,
		metaCreatedAt:       createdAt,
	}
}

// scoredChunk is the best chunk of one note within a retrieval pass.
type scoredChunk struct {
	score float64
	meta  map[string]any
}

// Search answers a query with hybrid retrieval. The keyword pass scans the
// store once per query keyword; prefer SearchOptimized on large indexes.
func (e *Engine) Search(ctx context.Context, query string, topK int, filters map[string]any) ([]Result, error) {
	return e.search(ctx, query, topK, filters, false)
}

// SearchOptimized is Search with a single-scan keyword pass. Results are
// identical; only the number of store round trips differs.
func (e *Engine) SearchOptimized(ctx context.Context, query string, topK int, filters map[string]any) ([]Result, error) {
	return e.search(ctx, query, topK, filters, true)
}

func (e *Engine) search(ctx context.Context, query string, topK int, filters map[string]any, optimized bool) ([]Result, error) {
	logger := e.getLogger(ctx)

	query = strings.TrimSpace(query)
	if query == "" {
		return []Result{}, nil
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	analysis := AnalyzeQuery(query)

	semantic, err := e.semanticPass(ctx, query, topK, filters)
	if err != nil {
		return nil, err
	}

	var keyword map[int]scoredChunk
	if len(analysis.Keywords) > 0 {
		if optimized {
			keyword, err = e.keywordPassOptimized(ctx, analysis.Keywords, filters)
		} else {
			keyword, err = e.keywordPass(ctx, analysis.Keywords, filters)
		}
		if err != nil {
			// The keyword pass is an enhancement. Semantic results
			// alone still answer the query.
			logger.WarnContext(ctx, "keyword pass failed, using semantic results only", "error", err)
			keyword = nil
		}
	}

	results := e.mergeResults(analysis, semantic, keyword, topK)
	logger.DebugContext(ctx, "search completed",
		"query_type", analysis.Type,
		"semantic_notes", len(semantic),
		"keyword_notes", len(keyword),
		"results", len(results))
	return results, nil
}

// semanticPass embeds the query, over-fetches similar chunks, and keeps
// the best-scoring chunk per note. The chunk score is the store similarity
// boosted by stored importance and chunk type.
func (e *Engine) semanticPass(ctx context.Context, query string, topK int, filters map[string]any) (map[int]scoredChunk, error) {
	vectors, err := e.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w: %w", ErrEmbedding, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding returned for query: %w", ErrEmbedding)
	}

	fetch := topK * semanticFetchFactor
	if fetch > maxSemanticFetch {
		fetch = maxSemanticFetch
	}

	hits, err := e.store.Search(ctx, e.collection, vectors[0], fetch, filters)
	if err != nil {
		return nil, fmt.Errorf("semantic search failed: %w: %w", ErrStoreUnavailable, err)
	}

	best := make(map[int]scoredChunk)
	for _, hit := range hits {
		noteID := metaInt(hit.Meta, metaNoteID)
		if noteID == 0 {
			continue
		}
		score := float64(hit.Score) +
			metaFloat(hit.Meta, metaImportance, 0.5)*importanceWeight +
			chunkTypeBonus(metaString(hit.Meta, metaChunkType))
		if cur, ok := best[noteID]; !ok || score > cur.score {
			best[noteID] = scoredChunk{score: score, meta: hit.Meta}
		}
	}
	return best, nil
}

func chunkTypeBonus(chunkType string) float64 {
	switch chunker.ChunkType(chunkType) {
	case chunker.TypeTitle:
		return titleBonus
	case chunker.TypeSemantic:
		return semanticBonus
	case chunker.TypeMerged:
		return mergedBonus
	}
	return 0
}

// keywordPass scans the store once per query keyword and counts how many
// keywords each chunk matches. The chunk score is the matched fraction of
// the query's keywords.
func (e *Engine) keywordPass(ctx context.Context, queryKeywords keywords.Set, filters map[string]any) (map[int]scoredChunk, error) {
	type tally struct {
		meta    map[string]any
		matched int
	}
	byChunk := make(map[string]*tally)

	for _, kw := range queryKeywords.Sorted() {
		points, err := e.store.Scroll(ctx, e.collection, filters, 0)
		if err != nil {
			return nil, fmt.Errorf("keyword scan failed: %w: %w", ErrStoreUnavailable, err)
		}
		for _, p := range points {
			if !chunkKeywords(p.Meta).Contains(kw) {
				continue
			}
			t, ok := byChunk[p.PointID]
			if !ok {
				t = &tally{meta: p.Meta}
				byChunk[p.PointID] = t
			}
			t.matched++
		}
	}

	best := make(map[int]scoredChunk)
	for _, t := range byChunk {
		e.recordKeywordMatch(best, t.meta, t.matched, len(queryKeywords))
	}
	return best, nil
}

// keywordPassOptimized computes the same scores as keywordPass with a
// single scan, intersecting each chunk's stored keyword set in memory.
func (e *Engine) keywordPassOptimized(ctx context.Context, queryKeywords keywords.Set, filters map[string]any) (map[int]scoredChunk, error) {
	points, err := e.store.Scroll(ctx, e.collection, filters, 0)
	if err != nil {
		return nil, fmt.Errorf("keyword scan failed: %w: %w", ErrStoreUnavailable, err)
	}

	best := make(map[int]scoredChunk)
	for _, p := range points {
		matched := len(chunkKeywords(p.Meta).Intersect(queryKeywords))
		if matched == 0 {
			continue
		}
		e.recordKeywordMatch(best, p.Meta, matched, len(queryKeywords))
	}
	return best, nil
}

func (e *Engine) recordKeywordMatch(best map[int]scoredChunk, meta map[string]any, matched, total int) {
	noteID := metaInt(meta, metaNoteID)
	if noteID == 0 || total == 0 {
		return
	}
	score := float64(matched) / float64(total)
	if cur, ok := best[noteID]; !ok || score > cur.score {
		best[noteID] = scoredChunk{score: score, meta: meta}
	}
}

// mergeResults blends both passes into a ranked, per-note-deduplicated
// result list. The query type shifts the blend toward keywords for project
// and status queries, where exact terms carry more signal.
func (e *Engine) mergeResults(analysis Analysis, semantic, keyword map[int]scoredChunk, topK int) []Result {
	weights := e.weights
	switch analysis.Type {
	case QueryTypeProject:
		weights = Weights{Semantic: 0.6, Keyword: 0.4}
	case QueryTypeStatus:
		weights = Weights{Semantic: 0.5, Keyword: 0.5}
	}

	noteIDs := make(map[int]struct{}, len(semantic)+len(keyword))
	for id := range semantic {
		noteIDs[id] = struct{}{}
	}
	for id := range keyword {
		noteIDs[id] = struct{}{}
	}

	results := make([]Result, 0, len(noteIDs))
	for noteID := range noteIDs {
		sem, inSemantic := semantic[noteID]
		kw := keyword[noteID]

		// The semantic pass saw the full document, so its chunk wins
		// the result slot when both passes hit the note.
		winner := sem.meta
		if !inSemantic {
			winner = kw.meta
		}

		final := weights.Semantic*sem.score + weights.Keyword*kw.score
		if analysis.HasEntities && metaBool(winner, metaHasEntities) {
			final += entityBonus
		}

		results = append(results, Result{
			NoteID:        noteID,
			Title:         metaString(winner, metaTitle),
			Category:      metaString(winner, metaCategory),
			Snippet:       makeSnippet(metaString(winner, metaText), analysis.Keywords),
			SemanticScore: sem.score,
			KeywordScore:  kw.score,
			FinalScore:    final,
			ChunkType:     metaString(winner, metaChunkType),
			Metadata:      winner,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].NoteID < results[j].NoteID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Statistics scans the whole index and aggregates chunk counts, types,
// categories, and importance.
func (e *Engine) Statistics(ctx context.Context) (*Statistics, error) {
	points, err := e.store.Scroll(ctx, e.collection, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to scan index: %w: %w", ErrStoreUnavailable, err)
	}

	stats := &Statistics{
		TotalChunks: len(points),
		ChunkTypes:  make(map[string]int),
		Categories:  []string{},
		IndexHealth: "empty",
	}
	if len(points) == 0 {
		return stats, nil
	}
	stats.IndexHealth = "healthy"

	categories := make(map[string]struct{})
	var importanceSum float64
	for _, p := range points {
		if ct := metaString(p.Meta, metaChunkType); ct != "" {
			stats.ChunkTypes[ct]++
		}
		if cat := metaString(p.Meta, metaCategory); cat != "" {
			categories[cat] = struct{}{}
		}
		importanceSum += metaFloat(p.Meta, metaImportance, 0.5)
	}

	for cat := range categories {
		stats.Categories = append(stats.Categories, cat)
	}
	sort.Strings(stats.Categories)
	stats.AvgImportance = importanceSum / float64(len(points))
	return stats, nil
}
