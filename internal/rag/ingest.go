package rag

import (
	"context"
	"fmt"
	"io"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/concierge/internal/ai"
	"github.com/xxxsen/concierge/internal/extract"
)

// Document is one uploaded file to ingest.
type Document struct {
	Name string
	Body io.Reader
}

type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, ai.EmbedOutcome, error)
}

// ExtractorFunc picks the page extractor for a document name.
type ExtractorFunc func(name string) (extract.Extractor, error)

type IngestResult struct {
	Documents int             `json:"documents"`
	Pages     int             `json:"pages"`
	Chunks    int             `json:"chunks"`
	// PerSource counts chunks by document name.
	PerSource map[string]int  `json:"per_source"`
	Outcome   ai.EmbedOutcome `json:"outcome"`
}

type Ingestor struct {
	store      *Store
	chunker    *Chunker
	embedder   BatchEmbedder
	extractors ExtractorFunc
}

func NewIngestor(store *Store, chunker *Chunker, embedder BatchEmbedder, extractors ExtractorFunc) *Ingestor {
	if extractors == nil {
		extractors = extract.ForFile
	}
	return &Ingestor{store: store, chunker: chunker, embedder: embedder, extractors: extractors}
}

// Ingest extracts, chunks and embeds docs and appends them to the store in
// one step. Nothing is stored when any part fails.
func (i *Ingestor) Ingest(ctx context.Context, docs []Document) (*IngestResult, error) {
	logger := logutil.GetLogger(ctx)
	res := &IngestResult{Documents: len(docs), PerSource: make(map[string]int, len(docs))}

	var chunks []Chunk
	for _, doc := range docs {
		ex, err := i.extractors(doc.Name)
		if err != nil {
			return nil, err
		}
		pages, err := ex.ExtractPages(ctx, doc.Body)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", doc.Name, err)
		}
		res.Pages += len(pages)
		before := len(chunks)
		for _, p := range pages {
			for c := range i.chunker.Chunks(doc.Name, p.Number, p.Text) {
				chunks = append(chunks, c)
			}
		}
		res.PerSource[doc.Name] += len(chunks) - before
		logger.Debug("document chunked", zap.String("source", doc.Name), zap.Int("pages", len(pages)), zap.Int("chunks", len(chunks)-before))
	}
	if len(chunks) == 0 {
		return res, nil
	}

	texts := make([]string, len(chunks))
	for idx, c := range chunks {
		texts[idx] = c.Text
	}
	matrix, outcome, err := i.embedder.EmbedBatch(ctx, texts, ai.TaskRetrievalDocument)
	if err != nil {
		return nil, err
	}
	if err := i.store.Append(chunks, matrix); err != nil {
		return nil, err
	}
	res.Chunks = len(chunks)
	res.Outcome = outcome
	logger.Info("documents ingested",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.String("embed_tier", string(outcome.Tier)),
		zap.Int("total_chunks", i.store.Len()),
	)
	return res, nil
}
