package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_llm_client.go -package=mocks notas-ai/internal/service LLMClient

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"notas-ai/internal/search"
)

// LLMClient is an interface for interacting with an LLM API.
// This interface is defined from the service layer's perspective (consumer-first).
type LLMClient interface {
	// Chat sends a message to the LLM and returns the reply.
	Chat(ctx context.Context, message string) (string, error)
}

// Searcher answers queries against the chunk index.
type Searcher interface {
	SearchOptimized(ctx context.Context, query string, topK int, filters map[string]any) ([]search.Result, error)
}

// AskRequest represents a question over the user's notes.
type AskRequest struct {
	Question string
	Category string
	TopK     int
}

// AskResponse carries the generated answer and the notes it drew from.
type AskResponse struct {
	Answer  string
	Sources []search.Result
}

// noSourcesAnswer is returned without calling the LLM when retrieval finds
// nothing, so the model never invents an answer from thin air.
const noSourcesAnswer = "No encontré notas relacionadas con tu pregunta."

// AskService answers questions by retrieving relevant note chunks and
// asking the LLM to respond from them.
type AskService struct {
	searcher Searcher
	llm      LLMClient
	logger   *slog.Logger
}

// NewAskService creates a new AskService.
func NewAskService(searcher Searcher, llm LLMClient) *AskService {
	return &AskService{
		searcher: searcher,
		llm:      llm,
		logger:   slog.Default(),
	}
}

// Ask retrieves context for the question and generates an answer.
func (s *AskService) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	if strings.TrimSpace(req.Question) == "" {
		return AskResponse{}, &ValidationError{Field: "question", Message: "cannot be empty"}
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 5
	}

	var filters map[string]any
	if req.Category != "" {
		filters = map[string]any{"category": req.Category}
	}

	results, err := s.searcher.SearchOptimized(ctx, req.Question, topK, filters)
	if err != nil {
		return AskResponse{}, WrapError(err, "failed to search notes")
	}
	if len(results) == 0 {
		return AskResponse{Answer: noSourcesAnswer, Sources: []search.Result{}}, nil
	}

	answer, err := s.llm.Chat(ctx, buildPrompt(req.Question, results))
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return AskResponse{}, WrapExternal(err, "failed to get LLM response")
	}

	s.logger.InfoContext(ctx, "question answered", "sources", len(results), "answer_length", len(answer))
	return AskResponse{Answer: answer, Sources: results}, nil
}

// buildPrompt assembles the grounding context from retrieved chunks. The
// instructions are in Spanish to match the notes.
func buildPrompt(question string, results []search.Result) string {
	var b strings.Builder
	b.WriteString("Eres un asistente que responde preguntas sobre las notas personales del usuario.\n")
	b.WriteString("Responde en español usando únicamente el contexto siguiente. ")
	b.WriteString("Si el contexto no contiene la respuesta, dilo claramente.\n\nContexto:\n")
	for _, r := range results {
		fmt.Fprintf(&b, "- %s: %s\n", r.Title, r.Snippet)
	}
	fmt.Fprintf(&b, "\nPregunta: %s", question)
	return b.String()
}
