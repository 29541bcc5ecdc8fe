// Package keywords extracts significant terms from note text.
//
// The extractor feeds every other part of the engine: chunk metadata,
// query analysis, snippet focusing, and the lexical half of hybrid search.
package keywords

import (
	"sort"
	"strings"
	"unicode"
)

// Delimiter separates keywords when a set is flattened for storage.
const Delimiter = ","

// stopwords holds high-frequency Spanish function words that carry no
// retrieval signal on their own.
var stopwords = map[string]struct{}{
	"de": {}, "la": {}, "que": {}, "el": {}, "en": {}, "y": {}, "a": {},
	"los": {}, "del": {}, "se": {}, "las": {}, "por": {}, "un": {},
	"para": {}, "con": {}, "no": {}, "una": {}, "su": {}, "al": {},
	"lo": {}, "como": {}, "más": {}, "mas": {}, "pero": {}, "sus": {},
	"le": {}, "ya": {}, "o": {}, "este": {}, "sí": {}, "si": {},
	"porque": {}, "esta": {}, "entre": {}, "cuando": {}, "muy": {},
	"sin": {}, "sobre": {}, "también": {}, "me": {}, "hasta": {},
	"hay": {}, "donde": {}, "quien": {}, "desde": {}, "todo": {},
	"nos": {}, "durante": {}, "todos": {}, "uno": {}, "les": {},
	"ni": {}, "contra": {}, "otros": {}, "ese": {}, "eso": {},
	"ante": {}, "ellos": {}, "esto": {}, "antes": {}, "unos": {},
	"qué": {}, "fue": {}, "son": {}, "está": {}, "han": {},
}

// Set is an unordered collection of extracted keywords.
type Set map[string]struct{}

// NewSet builds a set from the given terms.
func NewSet(terms ...string) Set {
	s := make(Set, len(terms))
	for _, t := range terms {
		if t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

// Contains reports whether term is in the set.
func (s Set) Contains(term string) bool {
	_, ok := s[term]
	return ok
}

// Sorted returns the keywords in lexicographic order.
// Map iteration order is random; every serialized or truncated view of a
// set must go through here so chunking stays deterministic.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Union returns a new set containing the members of both sets.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

// Intersect returns the members present in both sets.
func (s Set) Intersect(other Set) Set {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set)
	for k := range small {
		if _, ok := large[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets have similarity 0.
func (s Set) Jaccard(other Set) float64 {
	if len(s) == 0 && len(other) == 0 {
		return 0
	}
	inter := len(s.Intersect(other))
	union := len(s) + len(other) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Truncate returns a set holding at most n keywords, chosen in sorted
// order so the result is stable across runs.
func (s Set) Truncate(n int) Set {
	if len(s) <= n {
		return s
	}
	out := make(Set, n)
	for _, k := range s.Sorted()[:n] {
		out[k] = struct{}{}
	}
	return out
}

// Serialize flattens the set to a delimited string for flat metadata
// storage. Keywords containing the delimiter cannot round-trip and are
// skipped; the extractor never produces them since it splits on
// punctuation.
func (s Set) Serialize() string {
	terms := make([]string, 0, len(s))
	for _, k := range s.Sorted() {
		if !strings.Contains(k, Delimiter) {
			terms = append(terms, k)
		}
	}
	return strings.Join(terms, Delimiter)
}

// Parse rebuilds a set from its serialized form. Malformed or empty input
// yields an empty set rather than an error: stored metadata is
// user-derived and must never block a search.
func Parse(serialized string) Set {
	s := make(Set)
	for _, part := range strings.Split(serialized, Delimiter) {
		part = strings.TrimSpace(part)
		if part != "" {
			s[part] = struct{}{}
		}
	}
	return s
}

// Extract returns the significant terms of text: lowercased tokens with
// punctuation stripped, minus stopwords and tokens of length <= 2, plus
// capitalized entity tokens from the original-case text. Entities are kept
// regardless of length since proper nouns carry signal on their own.
func Extract(text string) Set {
	s := make(Set)
	if text == "" {
		return s
	}
	for _, token := range tokenize(strings.ToLower(text)) {
		if len([]rune(token)) <= 2 {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		s[token] = struct{}{}
	}
	for _, entity := range Entities(text) {
		s[strings.ToLower(entity)] = struct{}{}
	}
	return s
}

// Entities returns the title-case tokens of the original-case text, in
// order of appearance. Capitalized stopwords are excluded: a capitalized
// "El" is almost always sentence-initial, not a proper noun.
func Entities(text string) []string {
	var entities []string
	for _, token := range entityTokens(text) {
		if _, stop := stopwords[strings.ToLower(token)]; stop {
			continue
		}
		entities = append(entities, token)
	}
	return entities
}

// Coherence measures topical continuity between two spans of text as the
// Jaccard similarity of their keyword sets.
func Coherence(a, b string) float64 {
	return Extract(a).Jaccard(Extract(b))
}

// tokenize splits text on any non-letter, non-digit rune.
func tokenize(text string) []string {
	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	return strings.Fields(builder.String())
}

// entityTokens returns title-case words from the original-case text.
func entityTokens(text string) []string {
	var entities []string
	for _, token := range tokenize(text) {
		runes := []rune(token)
		if len(runes) < 2 {
			continue
		}
		if !unicode.IsUpper(runes[0]) {
			continue
		}
		rest := runes[1:]
		lower := true
		for _, r := range rest {
			if unicode.IsUpper(r) {
				lower = false
				break
			}
		}
		if lower {
			entities = append(entities, token)
		}
	}
	return entities
}
