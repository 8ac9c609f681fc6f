package rag

import (
	"errors"
	"fmt"
	"sort"
)

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Hit is one search result: the row position in the index and its inner
// product with the query.
type Hit struct {
	Index int
	Score float32
}

// Index is an exact flat inner-product index. It is immutable after
// construction and safe for concurrent readers.
type Index struct {
	dim  int
	rows [][]float32
}

// NewIndex copies matrix into a new index. All rows must share one dimension.
func NewIndex(matrix [][]float32) (*Index, error) {
	idx := &Index{rows: make([][]float32, 0, len(matrix))}
	for i, row := range matrix {
		if i == 0 {
			idx.dim = len(row)
		}
		if len(row) != idx.dim {
			return nil, fmt.Errorf("row %d has %d values, want %d: %w", i, len(row), idx.dim, ErrDimensionMismatch)
		}
		idx.rows = append(idx.rows, append([]float32(nil), row...))
	}
	return idx, nil
}

func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.rows)
}

func (x *Index) Dim() int {
	if x == nil {
		return 0
	}
	return x.dim
}

// Search returns the k rows with the highest inner product with query,
// best first. Equal scores keep row order.
func (x *Index) Search(query []float32, k int) ([]Hit, error) {
	if x.Len() == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("query has %d values, index has %d: %w", len(query), x.dim, ErrDimensionMismatch)
	}
	hits := make([]Hit, len(x.rows))
	for i, row := range x.rows {
		hits[i] = Hit{Index: i, Score: dot(row, query)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits[:min(k, len(hits))], nil
}

// Extend returns a new index holding the rows of x followed by matrix.
func (x *Index) Extend(matrix [][]float32) (*Index, error) {
	all := make([][]float32, 0, x.Len()+len(matrix))
	if x != nil {
		all = append(all, x.rows...)
	}
	all = append(all, matrix...)
	return NewIndex(all)
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
