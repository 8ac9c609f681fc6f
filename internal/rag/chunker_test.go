package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkerWindows(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"
	c, err := NewChunker(10, 3)
	require.NoError(t, err)

	chunks := c.Split("doc.pdf", 2, text)
	require.Equal(t, []Chunk{
		{Text: "abcdefghij", Source: "doc.pdf", Page: 2},
		{Text: "hijklmnopq", Source: "doc.pdf", Page: 2},
		{Text: "opqrstuvwx", Source: "doc.pdf", Page: 2},
		{Text: "vwxyz", Source: "doc.pdf", Page: 2},
	}, chunks)
	require.True(t, strings.HasSuffix(text, chunks[len(chunks)-1].Text))
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		require.Equal(t, prev[len(prev)-3:], chunks[i].Text[:3])
	}
}

func TestChunkerCountMatchesSimulation(t *testing.T) {
	cases := []struct{ length, size, overlap int }{
		{1, 5, 1}, {5, 5, 1}, {6, 5, 1}, {100, 10, 0}, {101, 10, 9}, {1000, 512, 128},
	}
	for _, cs := range cases {
		c, err := NewChunker(cs.size, cs.overlap)
		require.NoError(t, err)
		text := strings.Repeat("x", cs.length)

		want, start := 0, 0
		for {
			end := min(start+cs.size, cs.length)
			want++
			if end == cs.length {
				break
			}
			start = end - cs.overlap
		}
		require.Len(t, c.Split("s", 1, text), want, "length=%d size=%d overlap=%d", cs.length, cs.size, cs.overlap)
	}
}

func TestChunkerSkipsBlankWindows(t *testing.T) {
	c, err := NewChunker(4, 0)
	require.NoError(t, err)
	got := c.Split("s", 1, "ab      cd")
	require.Equal(t, []string{"ab", "cd"}, texts(got))
	require.Empty(t, c.Split("s", 1, ""))
	require.Empty(t, c.Split("s", 1, "        "))
}

func TestChunkerCountsRunes(t *testing.T) {
	c, err := NewChunker(5, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"héllo", "wörl", "d"}, texts(c.Split("s", 1, "héllo wörld")))
}

func TestChunkerAlwaysAdvances(t *testing.T) {
	c := &Chunker{Size: 4, Overlap: 4}
	got := c.Split("s", 1, "abcdefgh")
	require.Equal(t, []string{"abcd", "bcde", "cdef", "defg", "efgh"}, texts(got))
}

func TestChunkerIsRestartableAndLazy(t *testing.T) {
	c, err := NewChunker(3, 1)
	require.NoError(t, err)
	seq := c.Chunks("s", 1, "abcdefghi")
	first := collect(seq)
	second := collect(seq)
	require.Equal(t, first, second)

	var taken []Chunk
	for ck := range seq {
		taken = append(taken, ck)
		break
	}
	require.Len(t, taken, 1)
}

func TestNewChunkerRejectsBadConfig(t *testing.T) {
	_, err := NewChunker(0, 0)
	require.Error(t, err)
	_, err = NewChunker(10, 10)
	require.Error(t, err)
	_, err = NewChunker(10, -1)
	require.Error(t, err)
}

func texts(chunks []Chunk) []string {
	res := make([]string, 0, len(chunks))
	for _, c := range chunks {
		res = append(res, c.Text)
	}
	return res
}

func collect(seq func(func(Chunk) bool)) []Chunk {
	var res []Chunk
	for ck := range seq {
		res = append(res, ck)
	}
	return res
}
