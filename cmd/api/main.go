package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"strings"

	"notas-ai/internal/chunker"
	"notas-ai/internal/config"
	"notas-ai/internal/http"
	"notas-ai/internal/llm"
	"notas-ai/internal/search"
	"notas-ai/internal/service"
	"notas-ai/internal/storage"
	"notas-ai/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	noteRepo := storage.NewNoteRepo(db)
	categoryRepo := storage.NewCategoryRepo(db)

	// Initialize Qdrant vector store
	ctx := context.Background()

	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}

	// Ensure collection exists with correct vector size
	if err := vectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	testEmbeddings, err := embedder.EmbedTexts(ctx, []string{"prueba"})
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbeddings) == 0 || len(testEmbeddings[0]) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.QdrantVectorSize, len(testEmbeddings[0]))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

	// Create the semantic chunker and retrieval engine
	ch := chunker.New(chunker.Config{
		MaxChunkSize:       cfg.ChunkMaxSize,
		MinChunkSize:       cfg.ChunkMinSize,
		Overlap:            cfg.ChunkOverlap,
		CoherenceThreshold: cfg.CoherenceThreshold,
		MergeThreshold:     cfg.MergeThreshold,
	})
	engine := search.NewEngine(embedder, vectorStore, cfg.QdrantCollection, ch, search.Weights{
		Semantic: cfg.SemanticWeight,
		Keyword:  cfg.KeywordWeight,
	})
	slog.Info("Search engine initialized")

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// Create services
	notesService := service.NewNotesService(noteRepo, categoryRepo, engine)
	askService := service.NewAskService(engine, llmClient)

	// Create router with dependencies
	deps := &http.Deps{
		Notes:      notesService,
		Ask:        askService,
		Searcher:   engine,
		Stats:      engine,
		Reindexer:  notesService,
		Health:     vectorStore,
		Collection: cfg.QdrantCollection,
	}
	router := http.NewRouter(deps)

	// Rebuild the chunk index in the background after the router is ready
	go func() {
		indexCtx := context.Background()
		slog.Info("Starting background reindex of stored notes")
		indexed, err := notesService.ReindexAll(indexCtx)
		if err != nil {
			slog.Error("Reindex completed with errors", "error", err)
			return
		}
		slog.Info("Reindex completed successfully", "indexed", indexed)
	}()

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
