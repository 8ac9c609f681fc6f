package extract

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// textExtractor splits plain text on form feeds, the page break that
// pdftotext style tools emit.
type textExtractor struct{}

func (textExtractor) ExtractPages(ctx context.Context, r io.Reader) ([]Page, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	parts := strings.Split(string(data), "\f")
	pages := make([]Page, 0, len(parts))
	for i, p := range parts {
		pages = append(pages, Page{Number: i + 1, Text: p})
	}
	return nonBlank(pages), nil
}

func init() {
	Register("text", textExtractor{}, ".txt", ".text")
}
