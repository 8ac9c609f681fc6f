package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/concierge/internal/ai"
	"github.com/xxxsen/concierge/internal/model"
)

const (
	DefaultTopK           = 5
	DefaultPromptMessages = 10

	contextSeparator = "\n\n---\n\n"
	noDocuments      = "(No documents have been ingested yet.)"
)

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, ai.EmbedOutcome, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (*ai.Outcome, error)
}

// Answer is a generated reply with the chunks it was grounded on.
type Answer struct {
	Text      string            `json:"text"`
	Contexts  []RetrievalResult `json:"contexts"`
	Provider  string            `json:"provider"`
	Model     string            `json:"model"`
	EmbedTier ai.Tier           `json:"embed_tier"`
}

type AnswererConfig struct {
	TopK           int
	PromptMessages int
}

type Answerer struct {
	store    *Store
	embedder QueryEmbedder
	gen      Generator
	cfg      AnswererConfig
}

func NewAnswerer(store *Store, embedder QueryEmbedder, gen Generator, cfg AnswererConfig) *Answerer {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.PromptMessages <= 0 {
		cfg.PromptMessages = DefaultPromptMessages
	}
	return &Answerer{store: store, embedder: embedder, gen: gen, cfg: cfg}
}

// Answer retrieves the k chunks closest to query and asks the generator to
// answer from them. k <= 0 uses the configured default.
func (a *Answerer) Answer(ctx context.Context, query string, history []model.Message, k int) (*Answer, error) {
	if k <= 0 {
		k = a.cfg.TopK
	}
	logger := logutil.GetLogger(ctx).With(zap.Int("top_k", k))

	res := &Answer{}
	if a.store.Len() > 0 {
		vec, outcome, err := a.embedder.EmbedQuery(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		res.EmbedTier = outcome.Tier
		res.Contexts, err = a.store.Search(vec, k)
		if err != nil {
			return nil, fmt.Errorf("search index: %w", err)
		}
	}
	logger.Debug("retrieved contexts", zap.Int("count", len(res.Contexts)), zap.String("embed_tier", string(res.EmbedTier)))

	prompt := BuildPrompt(query, lastMessages(history, a.cfg.PromptMessages), res.Contexts)
	out, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	res.Text = out.Text
	res.Provider = out.Provider
	res.Model = out.Model
	logger.Info("answer generated", zap.String("provider", out.Provider), zap.String("model", out.Model), zap.Int("attempts", len(out.Attempts)+1))
	return res, nil
}

// BuildPrompt renders the grounded prompt sent to the generation model.
func BuildPrompt(query string, history []model.Message, contexts []RetrievalResult) string {
	parts := []string{
		"You are an AI booking assistant.",
		"Use the CONTEXT to answer the QUESTION.",
		"If the answer is not in the context, say you are not sure and ask a clarifying question.",
	}
	if lines := historyLines(history); len(lines) > 0 {
		parts = append(parts, "\nCHAT HISTORY:\n"+strings.Join(lines, "\n"))
	}
	block := FormatContexts(contexts)
	if block == "" {
		block = noDocuments
	}
	parts = append(parts, "\nCONTEXT:\n"+block, "\nQUESTION:\n"+query)
	return strings.Join(parts, "\n")
}

// FormatContexts renders retrieved chunks in rank order.
func FormatContexts(contexts []RetrievalResult) string {
	blocks := make([]string, 0, len(contexts))
	for _, c := range contexts {
		blocks = append(blocks, fmt.Sprintf("[Source: %s | Page %d | Score %.3f]\n%s", c.Chunk.Source, c.Chunk.Page, c.Score, c.Chunk.Text))
	}
	return strings.Join(blocks, contextSeparator)
}

func historyLines(history []model.Message) []string {
	var lines []string
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		lines = append(lines, strings.ToUpper(m.Role)+": "+content)
	}
	return lines
}

func lastMessages(history []model.Message, n int) []model.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
