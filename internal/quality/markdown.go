package quality

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// docShape summarizes the structural elements of a markdown answer.
type docShape struct {
	Headings   int
	Lists      int
	CodeBlocks int
	Paragraphs int
}

// parseShape walks the markdown AST and counts block structure. Inline
// nodes are irrelevant for format scoring.
func parseShape(source string) docShape {
	var shape docShape
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			shape.Headings++
		case ast.KindList:
			shape.Lists++
		case ast.KindFencedCodeBlock, ast.KindCodeBlock:
			shape.CodeBlocks++
		case ast.KindParagraph:
			shape.Paragraphs++
		}
		return ast.WalkContinue, nil
	})
	return shape
}

// hasUnclosedFence reports whether the raw text opens a code fence it
// never closes. The parser silently swallows these, so check the raw
// delimiter count.
func hasUnclosedFence(source string) bool {
	return strings.Count(source, "```")%2 == 1
}
