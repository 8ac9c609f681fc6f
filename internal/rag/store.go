package rag

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// RetrievalResult is a chunk returned for a query with its similarity score.
type RetrievalResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
}

type snapshot struct {
	chunks []Chunk
	index  *Index
}

var emptySnapshot = &snapshot{index: &Index{}}

// Store holds every ingested chunk with its embedding. Appends are
// serialized; readers always see a complete snapshot where the number of
// chunks equals the number of index rows. The zero value is an empty store.
type Store struct {
	mu   sync.Mutex
	snap atomic.Pointer[snapshot]
}

// StoreStats describes the current contents of a Store.
type StoreStats struct {
	Chunks    int `json:"chunks"`
	Dimension int `json:"dimension"`
	Sources   int `json:"sources"`
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) current() *snapshot {
	if cur := s.snap.Load(); cur != nil {
		return cur
	}
	return emptySnapshot
}

// Append adds chunks with their embeddings, one row per chunk.
func (s *Store) Append(chunks []Chunk, matrix [][]float32) error {
	if len(chunks) != len(matrix) {
		return fmt.Errorf("append %d chunks with %d embeddings", len(chunks), len(matrix))
	}
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current()
	if cur.index.Len() > 0 && len(matrix[0]) != cur.index.Dim() {
		return fmt.Errorf("append rows of %d values to index of %d: %w", len(matrix[0]), cur.index.Dim(), ErrDimensionMismatch)
	}
	idx, err := cur.index.Extend(matrix)
	if err != nil {
		return err
	}
	all := make([]Chunk, 0, len(cur.chunks)+len(chunks))
	all = append(all, cur.chunks...)
	all = append(all, chunks...)
	s.snap.Store(&snapshot{chunks: all, index: idx})
	return nil
}

// Search returns the k chunks closest to query.
func (s *Store) Search(query []float32, k int) ([]RetrievalResult, error) {
	cur := s.current()
	hits, err := cur.index.Search(query, k)
	if err != nil {
		return nil, err
	}
	res := make([]RetrievalResult, 0, len(hits))
	for _, h := range hits {
		res = append(res, RetrievalResult{Chunk: cur.chunks[h.Index], Score: h.Score})
	}
	return res, nil
}

func (s *Store) Len() int {
	return len(s.current().chunks)
}

func (s *Store) Stats() StoreStats {
	cur := s.current()
	sources := make(map[string]struct{})
	for _, c := range cur.chunks {
		sources[c.Source] = struct{}{}
	}
	return StoreStats{Chunks: len(cur.chunks), Dimension: cur.index.Dim(), Sources: len(sources)}
}
