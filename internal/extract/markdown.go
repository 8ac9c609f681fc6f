package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownExtractor treats every level 1 or 2 heading as the start of a new
// page so retrieved chunks can point back at a section.
type markdownExtractor struct {
	md goldmark.Markdown
}

func (m markdownExtractor) ExtractPages(ctx context.Context, r io.Reader) ([]Page, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}
	doc := m.md.Parser().Parse(text.NewReader(src))

	var pages []Page
	var current []string
	flush := func() {
		if len(current) > 0 {
			pages = append(pages, Page{Number: len(pages) + 1, Text: strings.Join(current, "\n\n")})
		}
		current = nil
	}
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			if n.Level <= 2 {
				flush()
			}
			current = append(current, textOf(n, src))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			current = append(current, linesOf(n, src))
		default:
			if txt := textOf(n, src); txt != "" {
				current = append(current, txt)
			}
		}
	}
	flush()
	return nonBlank(pages), nil
}

func textOf(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := node.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

func linesOf(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return strings.TrimSpace(sb.String())
}

func init() {
	Register("markdown", markdownExtractor{md: goldmark.New()}, ".md", ".markdown")
}
