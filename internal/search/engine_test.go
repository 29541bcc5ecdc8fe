package search

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"notas-ai/internal/chunker"
	"notas-ai/internal/vectorstore"
	"notas-ai/internal/vectorstore/mocks"
)

const testCollection = "notas"

// fakeEmbedder returns deterministic vectors without a model. The values
// are irrelevant because the store is mocked.
type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), 1.0}
	}
	return vectors, nil
}

func newTestEngine(t *testing.T) (*Engine, *mocks.MockVectorStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	engine := NewEngine(&fakeEmbedder{}, store, testCollection, chunker.New(chunker.DefaultConfig()), Weights{})
	return engine, store
}

// chunkMeta builds store metadata the way IndexNote writes it and Qdrant
// returns it (integers as int64).
func chunkMeta(noteID int, title, category, chunkType, text, kw string, importance float64, hasEntities bool) map[string]any {
	return map[string]any{
		metaNoteID:      int64(noteID),
		metaTitle:       title,
		metaCategory:    category,
		metaChunkType:   chunkType,
		metaText:        text,
		metaKeywords:    kw,
		metaImportance:  importance,
		metaHasEntities: hasEntities,
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestIndexNote(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	note := Note{
		ID:       5,
		Title:    "Plan de marketing",
		Content:  "El presupuesto anual fue aprobado por María en la reunión de marzo.",
		Category: "trabajo",
		Tags:     []string{"finanzas", "2024"},
	}

	store.EXPECT().
		Scroll(gomock.Any(), testCollection, map[string]any{metaNoteID: 5}, 0).
		Return([]vectorstore.SearchResult{{PointID: "stale-1"}, {PointID: "stale-2"}}, nil)
	store.EXPECT().
		Delete(gomock.Any(), testCollection, []string{"stale-1", "stale-2"}).
		Return(nil)

	var upserted []vectorstore.Point
	store.EXPECT().
		Upsert(gomock.Any(), testCollection, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
			upserted = points
			return nil
		})

	if err := engine.IndexNote(ctx, note); err != nil {
		t.Fatalf("IndexNote() error = %v", err)
	}

	if len(upserted) < 2 {
		t.Fatalf("expected title chunk plus body chunks, got %d points", len(upserted))
	}

	title := upserted[0].Meta
	if got := metaString(title, metaChunkType); got != string(chunker.TypeTitle) {
		t.Errorf("first chunk type = %q, want title", got)
	}
	if got := metaInt(title, metaNoteID); got != 5 {
		t.Errorf("note_id = %d, want 5", got)
	}
	if got := metaString(title, metaTags); got != "finanzas,2024" {
		t.Errorf("tags = %q, want comma joined", got)
	}

	for _, p := range upserted[1:] {
		text := metaString(p.Meta, metaText)
		if !strings.HasPrefix(text, "Título: Plan de marketing\n\n") {
			t.Errorf("body chunk text missing title header: %q", text)
		}
		if p.ID == "" || len(p.Vec) == 0 {
			t.Error("every point needs an ID and a vector")
		}
	}
}

func TestIndexNoteSkipsEmpty(t *testing.T) {
	engine, _ := newTestEngine(t)

	err := engine.IndexNote(context.Background(), Note{ID: 9, Title: "  ", Content: "\n\t"})
	if err != nil {
		t.Errorf("empty note should be skipped without error, got %v", err)
	}
}

func TestIndexNoteEmbedderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	engine := NewEngine(&fakeEmbedder{err: errors.New("model offline")}, store, testCollection, nil, Weights{})

	store.EXPECT().
		Scroll(gomock.Any(), testCollection, gomock.Any(), 0).
		Return(nil, nil)

	err := engine.IndexNote(context.Background(), Note{ID: 1, Title: "Nota", Content: "Contenido."})
	if err == nil || !strings.Contains(err.Error(), "failed to embed") {
		t.Errorf("expected embed failure to propagate, got %v", err)
	}
	if !errors.Is(err, ErrEmbedding) {
		t.Errorf("embed failure should carry ErrEmbedding, got %v", err)
	}
}

func TestDeleteNoteChunksNoPoints(t *testing.T) {
	engine, store := newTestEngine(t)

	store.EXPECT().
		Scroll(gomock.Any(), testCollection, map[string]any{metaNoteID: 3}, 0).
		Return(nil, nil)

	if err := engine.DeleteNoteChunks(context.Background(), 3); err != nil {
		t.Errorf("DeleteNoteChunks() with no points should not error, got %v", err)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	engine, _ := newTestEngine(t)

	results, err := engine.Search(context.Background(), "   ", 5, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results for blank query, got %d", len(results))
	}
}

func TestSearchHybridScoring(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	budgetMeta := chunkMeta(1, "Presupuesto 2024", "trabajo", "semantic",
		"Título: Presupuesto 2024\n\nEl presupuesto anual fue aprobado.",
		"anual,aprobado,presupuesto", 0.8, false)
	meetingMeta := chunkMeta(2, "Reunión semanal", "trabajo", "semantic",
		"Título: Reunión semanal\n\nNotas de la reunión del equipo.",
		"equipo,notas,reunión", 0.5, false)

	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 15, nil).
		Return([]vectorstore.SearchResult{
			{PointID: "a", Score: 0.9, Meta: budgetMeta},
			{PointID: "b", Score: 0.5, Meta: meetingMeta},
		}, nil)

	// Naive keyword pass: one full scan per query keyword.
	store.EXPECT().
		Scroll(gomock.Any(), testCollection, nil, 0).
		Return([]vectorstore.SearchResult{
			{PointID: "a", Meta: budgetMeta},
			{PointID: "b", Meta: meetingMeta},
		}, nil).
		Times(2)

	results, err := engine.Search(ctx, "presupuesto anual", 5, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	top := results[0]
	if top.NoteID != 1 {
		t.Fatalf("expected budget note first, got note %d", top.NoteID)
	}
	// Semantic: 0.9 similarity + 0.8*0.2 importance + 0.1 type bonus.
	if !approxEqual(top.SemanticScore, 1.16) {
		t.Errorf("SemanticScore = %v, want 1.16", top.SemanticScore)
	}
	// Both query keywords match the stored set.
	if !approxEqual(top.KeywordScore, 1.0) {
		t.Errorf("KeywordScore = %v, want 1.0", top.KeywordScore)
	}
	if !approxEqual(top.FinalScore, 0.7*1.16+0.3*1.0) {
		t.Errorf("FinalScore = %v, want blended score", top.FinalScore)
	}
	if top.Snippet == "" || strings.HasPrefix(top.Snippet, "Título:") {
		t.Errorf("snippet should be content without the title header, got %q", top.Snippet)
	}

	second := results[1]
	if second.NoteID != 2 {
		t.Errorf("expected meeting note second, got note %d", second.NoteID)
	}
	if !approxEqual(second.KeywordScore, 0) {
		t.Errorf("meeting note KeywordScore = %v, want 0", second.KeywordScore)
	}
}

func TestSearchOneResultPerNote(t *testing.T) {
	engine, store := newTestEngine(t)

	weak := chunkMeta(7, "Informe", "trabajo", "semantic", "Sección menor.", "menor,sección", 0.5, false)
	strong := chunkMeta(7, "Informe", "trabajo", "title", "Informe", "informe", 1.0, false)

	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 15, nil).
		Return([]vectorstore.SearchResult{
			{PointID: "weak", Score: 0.4, Meta: weak},
			{PointID: "strong", Score: 0.9, Meta: strong},
		}, nil)
	store.EXPECT().
		Scroll(gomock.Any(), testCollection, nil, 0).
		Return(nil, nil)

	results, err := engine.Search(context.Background(), "informe", 5, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result per note, got %d", len(results))
	}
	if results[0].ChunkType != "title" {
		t.Errorf("winning chunk = %q, want the higher scoring title chunk", results[0].ChunkType)
	}
}

func TestSearchTieBreaksByNoteID(t *testing.T) {
	engine, store := newTestEngine(t)

	metaA := chunkMeta(9, "Nota A", "", "semantic", "Texto idéntico.", "", 0.5, false)
	metaB := chunkMeta(3, "Nota B", "", "semantic", "Texto idéntico.", "", 0.5, false)

	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 15, nil).
		Return([]vectorstore.SearchResult{
			{PointID: "a", Score: 0.6, Meta: metaA},
			{PointID: "b", Score: 0.6, Meta: metaB},
		}, nil)
	store.EXPECT().
		Scroll(gomock.Any(), testCollection, nil, 0).
		Return(nil, nil)

	results, err := engine.Search(context.Background(), "texto", 5, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].NoteID != 3 || results[1].NoteID != 9 {
		t.Errorf("equal scores should order by note ID, got %d then %d", results[0].NoteID, results[1].NoteID)
	}
}

func TestSearchKeywordPassFailureDegrades(t *testing.T) {
	engine, store := newTestEngine(t)

	meta := chunkMeta(4, "Nota", "", "semantic", "Contenido con presupuesto.", "contenido,presupuesto", 0.5, false)

	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 15, nil).
		Return([]vectorstore.SearchResult{{PointID: "p", Score: 0.8, Meta: meta}}, nil)
	store.EXPECT().
		Scroll(gomock.Any(), testCollection, nil, 0).
		Return(nil, errors.New("store unavailable"))

	results, err := engine.Search(context.Background(), "presupuesto", 5, nil)
	if err != nil {
		t.Fatalf("keyword pass failure must not fail the search, got %v", err)
	}
	if len(results) != 1 || results[0].NoteID != 4 {
		t.Fatalf("expected the semantic result to survive, got %v", results)
	}
	if !approxEqual(results[0].KeywordScore, 0) {
		t.Errorf("degraded search should report zero keyword score, got %v", results[0].KeywordScore)
	}
}

func TestSearchSemanticPassFailureIsFatal(t *testing.T) {
	engine, store := newTestEngine(t)

	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 15, nil).
		Return(nil, errors.New("store unavailable"))

	_, err := engine.Search(context.Background(), "presupuesto", 5, nil)
	if err == nil || !strings.Contains(err.Error(), "semantic search failed") {
		t.Errorf("expected semantic failure to propagate, got %v", err)
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("store failure should carry ErrStoreUnavailable, got %v", err)
	}
}

func TestSearchOptimizedSingleScan(t *testing.T) {
	engine, store := newTestEngine(t)

	meta := chunkMeta(6, "Finanzas", "trabajo", "semantic",
		"Título: Finanzas\n\nPresupuesto anual del área.",
		"anual,presupuesto,área", 0.7, false)

	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 15, nil).
		Return(nil, nil)
	// A single scan regardless of how many keywords the query has.
	store.EXPECT().
		Scroll(gomock.Any(), testCollection, nil, 0).
		Return([]vectorstore.SearchResult{{PointID: "p", Meta: meta}}, nil).
		Times(1)

	results, err := engine.SearchOptimized(context.Background(), "presupuesto anual marketing", 5, nil)
	if err != nil {
		t.Fatalf("SearchOptimized() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	// Two of the three query keywords are in the stored set.
	if !approxEqual(results[0].KeywordScore, 2.0/3.0) {
		t.Errorf("KeywordScore = %v, want 2/3", results[0].KeywordScore)
	}
	if !approxEqual(results[0].SemanticScore, 0) {
		t.Errorf("SemanticScore = %v, want 0 with no semantic hits", results[0].SemanticScore)
	}
}

func TestSearchStatusQueryRebalancesWeights(t *testing.T) {
	engine, store := newTestEngine(t)

	meta := chunkMeta(2, "Migración", "trabajo", "semantic",
		"La migración sigue en curso.", "curso,migración,sigue", 0.5, false)

	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 15, nil).
		Return([]vectorstore.SearchResult{{PointID: "p", Score: 0.4, Meta: meta}}, nil)
	store.EXPECT().
		Scroll(gomock.Any(), testCollection, nil, 0).
		Return([]vectorstore.SearchResult{{PointID: "p", Meta: meta}}, nil).
		AnyTimes()

	results, err := engine.Search(context.Background(), "estado de la migración", 5, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	// Status queries blend 0.5/0.5 instead of the default 0.7/0.3.
	sem := results[0].SemanticScore
	kw := results[0].KeywordScore
	if !approxEqual(results[0].FinalScore, 0.5*sem+0.5*kw) {
		t.Errorf("FinalScore = %v, want even blend of %v and %v", results[0].FinalScore, sem, kw)
	}
}

func TestSearchEntityBonus(t *testing.T) {
	engine, store := newTestEngine(t)

	withEntity := chunkMeta(1, "Acta", "", "semantic", "María presentó el acta.", "acta,maría,presentó", 0.5, true)
	withoutEntity := chunkMeta(2, "Acta vieja", "", "semantic", "Se archivó el acta.", "acta,archivó", 0.5, false)

	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 15, nil).
		Return([]vectorstore.SearchResult{
			{PointID: "a", Score: 0.5, Meta: withEntity},
			{PointID: "b", Score: 0.5, Meta: withoutEntity},
		}, nil)
	store.EXPECT().
		Scroll(gomock.Any(), testCollection, nil, 0).
		Return(nil, nil).
		AnyTimes()

	results, err := engine.Search(context.Background(), "acta de María", 5, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].NoteID != 1 {
		t.Errorf("entity-bearing chunk should rank first, got note %d", results[0].NoteID)
	}
	if diff := results[0].FinalScore - results[1].FinalScore; !approxEqual(diff, entityBonus) {
		t.Errorf("score gap = %v, want the entity bonus %v", diff, entityBonus)
	}
}

func TestSearchRespectsTopK(t *testing.T) {
	engine, store := newTestEngine(t)

	hits := make([]vectorstore.SearchResult, 0, 6)
	for i := 1; i <= 6; i++ {
		meta := chunkMeta(i, "Nota", "", "semantic", "Texto.", "", 0.5, false)
		hits = append(hits, vectorstore.SearchResult{PointID: "p", Score: float32(i) * 0.1, Meta: meta})
	}

	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 6, nil).
		Return(hits, nil)
	store.EXPECT().
		Scroll(gomock.Any(), testCollection, nil, 0).
		Return(nil, nil).
		AnyTimes()

	results, err := engine.Search(context.Background(), "texto", 2, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected topK results, got %d", len(results))
	}
	if results[0].NoteID != 6 {
		t.Errorf("expected highest scored note first, got %d", results[0].NoteID)
	}
}

func TestStatistics(t *testing.T) {
	engine, store := newTestEngine(t)

	store.EXPECT().
		Scroll(gomock.Any(), testCollection, nil, 0).
		Return([]vectorstore.SearchResult{
			{PointID: "a", Meta: map[string]any{metaChunkType: "title", metaCategory: "trabajo", metaImportance: 1.0}},
			{PointID: "b", Meta: map[string]any{metaChunkType: "semantic", metaCategory: "personal", metaImportance: 0.6}},
			{PointID: "c", Meta: map[string]any{metaChunkType: "semantic", metaCategory: "trabajo", metaImportance: 0.5}},
		}, nil)

	stats, err := engine.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.TotalChunks != 3 {
		t.Errorf("TotalChunks = %d, want 3", stats.TotalChunks)
	}
	if stats.ChunkTypes["semantic"] != 2 || stats.ChunkTypes["title"] != 1 {
		t.Errorf("ChunkTypes = %v", stats.ChunkTypes)
	}
	if len(stats.Categories) != 2 || stats.Categories[0] != "personal" {
		t.Errorf("Categories = %v, want sorted unique list", stats.Categories)
	}
	if !approxEqual(stats.AvgImportance, 0.7) {
		t.Errorf("AvgImportance = %v, want 0.7", stats.AvgImportance)
	}
	if stats.IndexHealth != "healthy" {
		t.Errorf("IndexHealth = %q, want healthy", stats.IndexHealth)
	}
}

func TestStatisticsEmptyIndex(t *testing.T) {
	engine, store := newTestEngine(t)

	store.EXPECT().
		Scroll(gomock.Any(), testCollection, nil, 0).
		Return(nil, nil)

	stats, err := engine.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.TotalChunks != 0 || stats.IndexHealth != "empty" {
		t.Errorf("empty index stats = %+v", stats)
	}
}

// Degraded metadata must not break search: malformed keyword payloads and
// missing importance degrade to neutral values.
func TestSearchToleratesMalformedMetadata(t *testing.T) {
	engine, store := newTestEngine(t)

	meta := map[string]any{
		metaNoteID:    int64(8),
		metaTitle:     "Nota dañada",
		metaChunkType: "semantic",
		metaText:      "Contenido recuperable.",
		metaKeywords:  ",,, ,",
		// importance missing entirely
	}

	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), 15, nil).
		Return([]vectorstore.SearchResult{{PointID: "p", Score: 0.5, Meta: meta}}, nil)
	store.EXPECT().
		Scroll(gomock.Any(), testCollection, nil, 0).
		Return([]vectorstore.SearchResult{{PointID: "p", Meta: meta}}, nil).
		AnyTimes()

	results, err := engine.Search(context.Background(), "contenido", 5, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	// Missing importance falls back to 0.5.
	if !approxEqual(results[0].SemanticScore, 0.5+0.5*importanceWeight+semanticBonus) {
		t.Errorf("SemanticScore = %v, want fallback importance applied", results[0].SemanticScore)
	}
	if !approxEqual(results[0].KeywordScore, 0) {
		t.Errorf("malformed keywords should score 0, got %v", results[0].KeywordScore)
	}
}

func TestSearchSmallerTopKIsPrefixOfLarger(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	hits := []vectorstore.SearchResult{
		{PointID: "a", Score: 0.9, Meta: chunkMeta(1, "Presupuesto", "trabajo", "semantic",
			"El presupuesto anual fue aprobado.", "anual,aprobado,presupuesto", 0.8, false)},
		{PointID: "b", Score: 0.7, Meta: chunkMeta(2, "Campaña", "trabajo", "semantic",
			"Campaña de marketing del trimestre.", "campaña,marketing,trimestre", 0.6, false)},
		{PointID: "c", Score: 0.5, Meta: chunkMeta(3, "Ventas", "trabajo", "semantic",
			"Resumen de ventas del mes.", "mes,resumen,ventas", 0.6, false)},
		{PointID: "d", Score: 0.3, Meta: chunkMeta(4, "Vacaciones", "personal", "semantic",
			"Plan de vacaciones familiares.", "familiares,plan,vacaciones", 0.5, false)},
	}

	// The candidate pool is held fixed across both calls so only the final
	// truncation differs between top_k values.
	store.EXPECT().
		Search(gomock.Any(), testCollection, gomock.Any(), gomock.Any(), nil).
		Return(hits, nil).
		Times(2)
	store.EXPECT().
		Scroll(gomock.Any(), testCollection, nil, 0).
		Return(hits, nil).
		Times(2)

	smaller, err := engine.SearchOptimized(ctx, "presupuesto marketing", 2, nil)
	if err != nil {
		t.Fatalf("SearchOptimized(top_k=2) error = %v", err)
	}
	larger, err := engine.SearchOptimized(ctx, "presupuesto marketing", 3, nil)
	if err != nil {
		t.Fatalf("SearchOptimized(top_k=3) error = %v", err)
	}

	if len(smaller) != 2 || len(larger) != 3 {
		t.Fatalf("result counts = %d and %d, want 2 and 3", len(smaller), len(larger))
	}
	for i := range smaller {
		if smaller[i].NoteID != larger[i].NoteID {
			t.Errorf("result %d: note %d at top_k=2 but note %d at top_k=3", i, smaller[i].NoteID, larger[i].NoteID)
		}
		if !approxEqual(smaller[i].FinalScore, larger[i].FinalScore) {
			t.Errorf("result %d: FinalScore %v at top_k=2 but %v at top_k=3", i, smaller[i].FinalScore, larger[i].FinalScore)
		}
	}
}
