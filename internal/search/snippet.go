package search

import (
	"strings"

	"notas-ai/internal/keywords"
)

const (
	snippetLength = 200
	snippetStep   = 50
	titlePrefix   = "Título: "
)

// makeSnippet produces a display excerpt of a chunk for a search result.
// Short chunks are returned verbatim; longer ones get a sliding window
// positioned over the region with the most query keyword occurrences.
func makeSnippet(text string, queryKeywords keywords.Set) string {
	text = stripTitlePrefix(text)
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}

	bestStart := 0
	bestCount := -1
	for start := 0; start < len(runes); start += snippetStep {
		end := start + snippetLength
		if end > len(runes) {
			end = len(runes)
		}
		window := strings.ToLower(string(runes[start:end]))
		count := 0
		for _, kw := range queryKeywords.Sorted() {
			count += strings.Count(window, kw)
		}
		if count > bestCount {
			bestCount = count
			bestStart = start
		}
		if end == len(runes) {
			break
		}
	}

	end := bestStart + snippetLength
	if end > len(runes) {
		end = len(runes)
	}
	snippet := string(runes[bestStart:end])
	if bestStart > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet += "..."
	}
	return snippet
}

// stripTitlePrefix removes the embedding title header from stored chunk
// text so snippets show only note content.
func stripTitlePrefix(text string) string {
	if !strings.HasPrefix(text, titlePrefix) {
		return text
	}
	if idx := strings.Index(text, "\n\n"); idx >= 0 {
		return text[idx+2:]
	}
	return text
}
