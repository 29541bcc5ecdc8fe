package chunker

import (
	"regexp"
	"strings"

	"notas-ai/internal/keywords"
)

var (
	numberPattern = regexp.MustCompile(`\d+`)
	// Numeric dates (12/03/2024, 3-11-24) and Spanish prose dates
	// ("12 de marzo").
	datePattern = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b|\b\d{1,2} de [a-záéíóúñ]+`)
)

// Metadata describes one chunk for ranking and filtering.
type Metadata struct {
	WordCount       int
	CharCount       int
	Position        int
	Keywords        keywords.Set
	SemanticDensity float64
	Importance      float64
	HasEntities     bool
	HasNumbers      bool
	HasDates        bool
	Merged          bool
}

// extractMetadata computes the per-chunk metadata from its text and
// starting position.
func extractMetadata(text string, position int) Metadata {
	kw := keywords.Extract(text)
	m := Metadata{
		WordCount:   len(strings.Fields(text)),
		CharCount:   runeLen(text),
		Position:    position,
		Keywords:    kw,
		HasNumbers:  numberPattern.MatchString(text),
		HasDates:    datePattern.MatchString(text),
		HasEntities: len(keywords.Entities(text)) > 0,
	}
	if m.WordCount > 0 {
		m.SemanticDensity = float64(len(kw)) / float64(m.WordCount)
	}
	m.Importance = importanceScore(m)
	return m
}

// importanceScore estimates information density on a 0–1 scale: a 0.5 base
// plus 0.1 for each of keyword richness, numbers, entities, being in the
// 300–600 rune band, and high semantic density.
func importanceScore(m Metadata) float64 {
	score := 0.5
	if len(m.Keywords) > 5 {
		score += 0.1
	}
	if m.HasNumbers {
		score += 0.1
	}
	if m.HasEntities {
		score += 0.1
	}
	if m.CharCount >= 300 && m.CharCount <= 600 {
		score += 0.1
	}
	if m.SemanticDensity > 0.3 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
