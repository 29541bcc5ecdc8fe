// Package chunker splits free-form note text into semantically coherent,
// retrieval-sized chunks.
//
// Boundaries follow structure first (blank-line paragraphs) and topic
// second: an oversized paragraph is only cut where the keyword overlap
// between the accumulated text and the next sentence drops below the
// coherence threshold. Length alone never forces a cut, so uniformly
// coherent run-on text can legally produce chunks above the maximum size.
package chunker

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"notas-ai/internal/keywords"
)

// ChunkType tags how a chunk was produced.
type ChunkType string

const (
	// TypeTitle is the synthetic title chunk, always emitted first with
	// start=end=0 when a note has a title.
	TypeTitle ChunkType = "title"
	// TypeSemantic is a chunk cut along paragraph or coherence boundaries.
	TypeSemantic ChunkType = "semantic"
	// TypeMerged is a chunk produced by combining undersized neighbors.
	TypeMerged ChunkType = "merged"
)

const (
	defaultMaxChunkSize = 800
	defaultMinChunkSize = 200
	defaultOverlap      = 100
	defaultCoherence    = 0.7
	defaultMerge        = 0.5

	titleScanWindow   = 500
	titleContextLimit = 200
	maxStoredKeywords = 10
)

// Config holds the chunking thresholds. The coherence and merge thresholds
// were tuned on Spanish-language personal notes and do not necessarily
// generalize to other corpora, which is why they are configuration rather
// than constants.
type Config struct {
	MaxChunkSize       int     // runes, boundary target (default 800)
	MinChunkSize       int     // runes, below this a chunk is a merge candidate (default 200)
	Overlap            int     // runes carried over a mid-paragraph boundary (default 100)
	CoherenceThreshold float64 // cut only below this keyword overlap (default 0.7)
	MergeThreshold     float64 // merge only above this keyword overlap (default 0.5)
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize:       defaultMaxChunkSize,
		MinChunkSize:       defaultMinChunkSize,
		Overlap:            defaultOverlap,
		CoherenceThreshold: defaultCoherence,
		MergeThreshold:     defaultMerge,
	}
}

// Chunk is one indexed unit of a note. Start and End are rune offsets into
// the note body; the title chunk reserves (0, 0).
type Chunk struct {
	Start int
	End   int
	Text  string
	Type  ChunkType
	Meta  Metadata
}

// Chunker splits note text according to its Config. It is stateless and
// safe for concurrent use.
type Chunker struct {
	cfg Config
}

// New creates a Chunker. Zero-valued Config fields fall back to defaults.
func New(cfg Config) *Chunker {
	def := DefaultConfig()
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = def.MaxChunkSize
	}
	if cfg.MinChunkSize <= 0 {
		cfg.MinChunkSize = def.MinChunkSize
	}
	if cfg.Overlap <= 0 {
		cfg.Overlap = def.Overlap
	}
	if cfg.CoherenceThreshold <= 0 {
		cfg.CoherenceThreshold = def.CoherenceThreshold
	}
	if cfg.MergeThreshold <= 0 {
		cfg.MergeThreshold = def.MergeThreshold
	}
	return &Chunker{cfg: cfg}
}

// Chunk splits a note into ordered chunks. A note with a title and no body
// yields exactly the title chunk; a fully empty note yields no chunks and
// the caller must skip indexing.
func (c *Chunker) Chunk(body, title string) []Chunk {
	title = strings.TrimSpace(title)

	var chunks []Chunk
	if title != "" {
		text := c.titleWithContext(title, body)
		meta := extractMetadata(text, 0)
		meta.Importance = 1.0
		chunks = append(chunks, Chunk{Start: 0, End: 0, Text: text, Type: TypeTitle, Meta: meta})
	}

	if strings.TrimSpace(body) == "" {
		return chunks
	}

	for _, para := range splitParagraphs(body) {
		if runeLen(para.text) <= c.cfg.MaxChunkSize {
			chunks = append(chunks, c.newChunk(para.start, para.text))
		} else {
			chunks = append(chunks, c.chunkBySentences(para)...)
		}
	}

	return c.mergeSmallChunks(chunks)
}

// titleWithContext builds the title chunk text: the title plus the
// sentences from the opening of the body that overlap most with the
// title's keywords (top 3, capped at 200 runes).
func (c *Chunker) titleWithContext(title, body string) string {
	titleKw := keywords.Extract(title)
	if len(titleKw) == 0 || strings.TrimSpace(body) == "" {
		return title
	}

	head := body
	if runeLen(head) > titleScanWindow {
		head = string([]rune(head)[:titleScanWindow])
	}

	type scored struct {
		index   int
		text    string
		overlap int
	}
	var candidates []scored
	for i, sentence := range splitSentences(head) {
		overlap := len(keywords.Extract(sentence).Intersect(titleKw))
		if overlap > 0 {
			candidates = append(candidates, scored{index: i, text: sentence, overlap: overlap})
		}
	}
	if len(candidates) == 0 {
		return title
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].overlap > candidates[j].overlap
	})
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	// Re-emit in document order so the context reads naturally.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].index < candidates[j].index
	})

	parts := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		parts = append(parts, cand.text)
	}
	context := strings.Join(parts, " ")
	if runeLen(context) > titleContextLimit {
		context = string([]rune(context)[:titleContextLimit])
	}

	return title + "\n\n" + context
}

// chunkBySentences cuts an oversized paragraph at low-coherence points.
// A boundary needs both conditions: appending the next sentence would
// exceed the max size, and the sentence no longer coheres with the
// accumulated text.
func (c *Chunker) chunkBySentences(para span) []Chunk {
	sentences := splitSentences(para.text)

	var out []Chunk
	var cur, lastSentence string
	curStart := para.start

	for _, sentence := range sentences {
		potential := sentence
		if cur != "" {
			potential = cur + " " + sentence
		}

		if runeLen(potential) > c.cfg.MaxChunkSize && cur != "" &&
			keywords.Coherence(cur, sentence) < c.cfg.CoherenceThreshold {
			out = append(out, c.newChunk(curStart, cur))

			// Seed the next chunk with trailing context so adjacent
			// chunks share retrieval signal across the boundary.
			overlap := c.overlapText(lastSentence)
			curEnd := curStart + runeLen(cur)
			cur = overlap + sentence
			curStart = curEnd - runeLen(overlap)
			if curStart < para.start {
				curStart = para.start
			}
		} else {
			cur = potential
		}
		lastSentence = sentence
	}

	if cur != "" {
		out = append(out, c.newChunk(curStart, cur))
	}
	return out
}

// overlapText returns the carry-over seed for a new chunk: the whole last
// sentence when it is short, otherwise its trailing runes.
func (c *Chunker) overlapText(lastSentence string) string {
	if lastSentence == "" {
		return ""
	}
	if runeLen(lastSentence) <= c.cfg.Overlap {
		return lastSentence + " "
	}
	runes := []rune(lastSentence)
	return string(runes[len(runes)-c.cfg.Overlap:]) + " "
}

// mergeSmallChunks combines undersized chunks with their right neighbor
// when the pair is combinable. The title chunk never participates.
func (c *Chunker) mergeSmallChunks(chunks []Chunk) []Chunk {
	if len(chunks) <= 1 {
		return chunks
	}

	merged := make([]Chunk, 0, len(chunks))
	i := 0
	for i < len(chunks) {
		cur := chunks[i]
		if cur.Type != TypeTitle && runeLen(cur.Text) < c.cfg.MinChunkSize && i+1 < len(chunks) {
			next := chunks[i+1]
			if next.Type != TypeTitle && c.combinable(cur, next) {
				merged = append(merged, c.combine(cur, next))
				i += 2
				continue
			}
		}
		merged = append(merged, cur)
		i++
	}
	return merged
}

// combinable reports whether two chunks may merge: combined length within
// the max size and keyword coherence above the merge threshold.
func (c *Chunker) combinable(a, b Chunk) bool {
	if runeLen(a.Text)+runeLen(b.Text)+1 > c.cfg.MaxChunkSize {
		return false
	}
	return a.Meta.Keywords.Jaccard(b.Meta.Keywords) > c.cfg.MergeThreshold
}

func (c *Chunker) combine(a, b Chunk) Chunk {
	text := a.Text + " " + b.Text
	meta := extractMetadata(text, a.Start)
	meta.Keywords = a.Meta.Keywords.Union(b.Meta.Keywords).Truncate(maxStoredKeywords)
	if meta.WordCount > 0 {
		meta.SemanticDensity = float64(len(meta.Keywords)) / float64(meta.WordCount)
	}
	meta.Importance = a.Meta.Importance
	if b.Meta.Importance > meta.Importance {
		meta.Importance = b.Meta.Importance
	}
	meta.Merged = true

	return Chunk{Start: a.Start, End: b.End, Text: text, Type: TypeMerged, Meta: meta}
}

func (c *Chunker) newChunk(start int, text string) Chunk {
	return Chunk{
		Start: start,
		End:   start + runeLen(text),
		Text:  text,
		Type:  TypeSemantic,
		Meta:  extractMetadata(text, start),
	}
}

// span is a paragraph with its rune offset into the note body.
type span struct {
	text  string
	start int
}

// splitParagraphs splits the body on blank lines, trimming surrounding
// whitespace while keeping offsets into the original text.
func splitParagraphs(body string) []span {
	runes := []rune(body)
	var paras []span

	paraStart, paraEnd := -1, -1
	flush := func() {
		if paraStart < 0 {
			return
		}
		s, e := paraStart, paraEnd
		for s < e && unicode.IsSpace(runes[s]) {
			s++
		}
		for e > s && unicode.IsSpace(runes[e-1]) {
			e--
		}
		if e > s {
			paras = append(paras, span{text: string(runes[s:e]), start: s})
		}
		paraStart = -1
	}

	lineStart := 0
	for i := 0; i <= len(runes); i++ {
		if i < len(runes) && runes[i] != '\n' {
			continue
		}
		line := string(runes[lineStart:i])
		if strings.TrimSpace(line) == "" {
			flush()
		} else {
			if paraStart < 0 {
				paraStart = lineStart
			}
			paraEnd = i
		}
		lineStart = i + 1
	}
	flush()

	return paras
}

// splitSentences splits text after sentence-final punctuation followed by
// whitespace and an uppercase (or inverted punctuation) opener.
func splitSentences(text string) []string {
	runes := []rune(text)
	var sentences []string

	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 || j >= len(runes) {
			continue
		}
		next := runes[j]
		if unicode.IsUpper(next) || next == '¿' || next == '¡' {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = j
			i = j - 1
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
