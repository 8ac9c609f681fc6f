package rag

import (
	"fmt"
	"iter"
	"strings"
)

const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 128
)

// Chunk is a slice of page text together with where it came from.
type Chunk struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   int    `json:"page"`
}

// Chunker splits page text into overlapping windows. Size and Overlap are
// counted in characters.
type Chunker struct {
	Size    int
	Overlap int
}

func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{Size: size, Overlap: overlap}, nil
}

// Chunks yields the non-blank windows of text in order. The sequence can be
// ranged over any number of times.
func (c *Chunker) Chunks(source string, page int, text string) iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		runes := []rune(text)
		size := c.Size
		if size <= 0 {
			size = DefaultChunkSize
		}
		start := 0
		for start < len(runes) {
			end := min(start+size, len(runes))
			if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
				if !yield(Chunk{Text: piece, Source: source, Page: page}) {
					return
				}
			}
			if end == len(runes) {
				return
			}
			next := end - c.Overlap
			if next <= start {
				next = start + 1
			}
			start = next
		}
	}
}

// Split collects Chunks into a slice.
func (c *Chunker) Split(source string, page int, text string) []Chunk {
	var res []Chunk
	for ck := range c.Chunks(source, page, text) {
		res = append(res, ck)
	}
	return res
}
