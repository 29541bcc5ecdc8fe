package search

import (
	"strings"
	"unicode"

	"notas-ai/internal/keywords"
)

// QueryType classifies the intent of a search query.
type QueryType string

const (
	QueryTypeStatus   QueryType = "status"
	QueryTypeProject  QueryType = "project"
	QueryTypePerson   QueryType = "person"
	QueryTypeTemporal QueryType = "temporal"
	QueryTypeGeneral  QueryType = "general"
)

// Classification vocabularies. Matching is by substring on the lowercased
// query, so "avances" matches "avance". Order matters: the first
// vocabulary with a hit wins.
var (
	statusTerms = []string{
		"estado", "progreso", "avance", "situación", "cómo va", "como va",
		"pendiente", "terminado", "completado", "bloqueado",
	}
	projectTerms = []string{
		"proyecto", "implementación", "implementacion", "desarrollo",
		"plan", "lanzamiento", "entrega", "iniciativa", "migración", "migracion",
	}
	personTerms = []string{
		"quién", "quien", "responsable", "encargado", "encargada", "asignado", "asignada",
	}
	temporalTerms = []string{
		"cuándo", "cuando", "fecha", "plazo", "vencimiento",
		"semana", "mes", "ayer", "mañana", "hoy",
	}
)

// Analysis is the parsed shape of a query used by the retrieval passes.
type Analysis struct {
	Keywords    keywords.Set
	HasEntities bool
	HasNumbers  bool
	WordCount   int
	Type        QueryType
}

// AnalyzeQuery extracts keywords from the query and classifies its intent.
// The classification shifts the semantic/keyword blend during ranking.
func AnalyzeQuery(query string) Analysis {
	return Analysis{
		Keywords:    keywords.Extract(query),
		HasEntities: len(keywords.Entities(query)) > 0,
		HasNumbers:  strings.ContainsFunc(query, unicode.IsDigit),
		WordCount:   len(strings.Fields(query)),
		Type:        classifyQuery(strings.ToLower(query)),
	}
}

func classifyQuery(lower string) QueryType {
	vocabularies := []struct {
		queryType QueryType
		terms     []string
	}{
		{QueryTypeStatus, statusTerms},
		{QueryTypeProject, projectTerms},
		{QueryTypePerson, personTerms},
		{QueryTypeTemporal, temporalTerms},
	}
	for _, vocab := range vocabularies {
		for _, term := range vocab.terms {
			if strings.Contains(lower, term) {
				return vocab.queryType
			}
		}
	}
	return QueryTypeGeneral
}
