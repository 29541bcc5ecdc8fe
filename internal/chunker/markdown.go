package chunker

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdownParser = goldmark.New()

// StripMarkdown flattens markdown to plain prose so imported notes chunk
// along paragraph boundaries instead of markup lines. Headings, paragraphs,
// list items, and code blocks each become a blank-line-separated block.
func StripMarkdown(content string) string {
	src := []byte(content)
	doc := markdownParser.Parser().Parse(text.NewReader(src))

	var blocks []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			if block := inlineText(n, src); block != "" {
				blocks = append(blocks, block)
			}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			if block := codeLines(node.Lines(), src); block != "" {
				blocks = append(blocks, block)
			}
			return ast.WalkSkipChildren, nil

		case *ast.CodeBlock:
			if block := codeLines(node.Lines(), src); block != "" {
				blocks = append(blocks, block)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	if len(blocks) == 0 {
		return strings.TrimSpace(content)
	}
	return strings.Join(blocks, "\n\n")
}

// inlineText collects the text content of a node and its children.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func codeLines(lines *text.Segments, src []byte) string {
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimSpace(b.String())
}
