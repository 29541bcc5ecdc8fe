// Package http wires the API routes and request middleware.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"notas-ai/internal/handlers"
	"notas-ai/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Notes      *service.NotesService
	Ask        *service.AskService
	Searcher   service.Searcher
	Stats      handlers.StatsProvider
	Reindexer  handlers.Reindexer
	Health     handlers.CollectionChecker
	Collection string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	noteHandler := handlers.NewNoteHandler(deps.Notes)
	searchHandler := handlers.NewSearchHandler(deps.Searcher)
	askHandler := handlers.NewAskHandler(deps.Ask)
	statsHandler := handlers.NewStatsHandler(deps.Stats)
	indexHandler := handlers.NewIndexHandler(deps.Reindexer)
	healthHandler := handlers.NewHealthHandler(deps.Health, deps.Collection)

	r.Route("/api", func(r chi.Router) {
		r.Route("/notes", func(r chi.Router) {
			r.Get("/", noteHandler.List)
			r.Post("/", noteHandler.Create)
			r.Get("/{id}", noteHandler.Get)
			r.Put("/{id}", noteHandler.Update)
			r.Delete("/{id}", noteHandler.Delete)
		})
		r.Get("/categories", noteHandler.Categories)
		r.Method(http.MethodPost, "/search", searchHandler)
		r.Method(http.MethodPost, "/ask", askHandler)
		r.Method(http.MethodGet, "/stats", statsHandler)
		r.Method(http.MethodPost, "/index", indexHandler)
		r.Method(http.MethodGet, "/health", healthHandler)
	})

	return r
}
