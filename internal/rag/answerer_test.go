package rag

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/concierge/internal/ai"
	"github.com/xxxsen/concierge/internal/extract"
	"github.com/xxxsen/concierge/internal/model"
)

type keywordEmbedder struct {
	queries int
}

func (k *keywordEmbedder) vec(text string) []float32 {
	v := []float32{0.01, 0.01, 0.01}
	for i, w := range []string{"apple", "banana", "cherry"} {
		if strings.Contains(text, w) {
			v[i] = 1
		}
	}
	return ai.Normalize(v)
}

func (k *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, ai.EmbedOutcome, error) {
	rows := make([][]float32, len(texts))
	for i, t := range texts {
		rows[i] = k.vec(t)
	}
	return rows, ai.EmbedOutcome{Tier: ai.TierLocal, Model: "kw"}, nil
}

func (k *keywordEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, ai.EmbedOutcome, error) {
	k.queries++
	return k.vec(text), ai.EmbedOutcome{Tier: ai.TierRemote, Model: "kw"}, nil
}

type recordingGen struct {
	prompt string
	err    error
}

func (r *recordingGen) Generate(ctx context.Context, prompt string) (*ai.Outcome, error) {
	r.prompt = prompt
	if r.err != nil {
		return nil, r.err
	}
	return &ai.Outcome{Text: "grounded answer", Provider: "gemini", Model: "gemini-1.5-flash"}, nil
}

type pagesExtractor []extract.Page

func (p pagesExtractor) ExtractPages(ctx context.Context, r io.Reader) ([]extract.Page, error) {
	return p, nil
}

func threePageDoc(name string) (extract.Extractor, error) {
	return pagesExtractor{
		{Number: 1, Text: "apple pie recipe"},
		{Number: 2, Text: "banana bread hours"},
		{Number: 3, Text: "cherry tart prices"},
	}, nil
}

func TestIngestThenAnswerRanksClosestChunkFirst(t *testing.T) {
	store := NewStore()
	emb := &keywordEmbedder{}
	chunker, err := NewChunker(512, 128)
	require.NoError(t, err)

	res, err := NewIngestor(store, chunker, emb, threePageDoc).Ingest(context.Background(), []Document{{Name: "menu.pdf", Body: strings.NewReader("")}})
	require.NoError(t, err)
	require.Equal(t, 3, res.Chunks)
	require.Equal(t, 3, store.Len())

	gen := &recordingGen{}
	ans, err := NewAnswerer(store, emb, gen, AnswererConfig{}).Answer(context.Background(), "when can I get banana bread?", nil, 2)
	require.NoError(t, err)
	require.Equal(t, "grounded answer", ans.Text)
	require.Len(t, ans.Contexts, 2)
	require.Equal(t, "banana bread hours", ans.Contexts[0].Chunk.Text)
	require.Equal(t, 2, ans.Contexts[0].Chunk.Page)
	require.Contains(t, gen.prompt, "[Source: menu.pdf | Page 2 | Score ")
	require.True(t, strings.HasSuffix(gen.prompt, "\nQUESTION:\nwhen can I get banana bread?"))
}

func TestAnswerWithEmptyStore(t *testing.T) {
	emb := &keywordEmbedder{}
	gen := &recordingGen{}
	ans, err := NewAnswerer(NewStore(), emb, gen, AnswererConfig{}).Answer(context.Background(), "hi", nil, 0)
	require.NoError(t, err)
	require.Empty(t, ans.Contexts)
	require.Zero(t, emb.queries)
	require.Contains(t, gen.prompt, "CONTEXT:\n(No documents have been ingested yet.)")
}

func TestAnswerPropagatesGenerationError(t *testing.T) {
	gen := &recordingGen{err: &ai.GenerationError{Last: errors.New("quota")}}
	_, err := NewAnswerer(NewStore(), &keywordEmbedder{}, gen, AnswererConfig{}).Answer(context.Background(), "hi", nil, 0)
	var gerr *ai.GenerationError
	require.ErrorAs(t, err, &gerr)
}

func TestBuildPrompt(t *testing.T) {
	history := []model.Message{
		{Role: model.RoleUser, Content: "hello"},
		{Role: model.RoleAssistant, Content: "  "},
		{Role: model.RoleAssistant, Content: "hi, how can I help?"},
	}
	contexts := []RetrievalResult{
		{Chunk: Chunk{Text: "We open at 9.", Source: "faq.pdf", Page: 1}, Score: 0.91234},
		{Chunk: Chunk{Text: "Demos are free.", Source: "faq.pdf", Page: 3}, Score: 0.5},
	}
	got := BuildPrompt("when do you open?", history, contexts)
	want := "You are an AI booking assistant.\n" +
		"Use the CONTEXT to answer the QUESTION.\n" +
		"If the answer is not in the context, say you are not sure and ask a clarifying question.\n" +
		"\nCHAT HISTORY:\nUSER: hello\nASSISTANT: hi, how can I help?\n" +
		"\nCONTEXT:\n[Source: faq.pdf | Page 1 | Score 0.912]\nWe open at 9.\n\n---\n\n[Source: faq.pdf | Page 3 | Score 0.500]\nDemos are free.\n" +
		"\nQUESTION:\nwhen do you open?"
	require.Equal(t, want, got)
}

func TestBuildPromptWithoutHistory(t *testing.T) {
	got := BuildPrompt("q", nil, nil)
	require.NotContains(t, got, "CHAT HISTORY")
	require.Contains(t, got, noDocuments)
}

func TestLastMessages(t *testing.T) {
	var h []model.Message
	for i := 0; i < 15; i++ {
		h = append(h, model.Message{Role: model.RoleUser, Content: strings.Repeat("x", i+1)})
	}
	got := lastMessages(h, 10)
	require.Len(t, got, 10)
	require.Equal(t, h[5], got[0])
}
