package ai

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const normEpsilon = 1e-10

type Tier string

const (
	TierRemote Tier = "remote"
	TierLocal  Tier = "local"
)

// EmbedOutcome tells which tier produced a batch of vectors. PrimaryErr is
// the remote failure that caused a fallback, if any.
type EmbedOutcome struct {
	Tier       Tier   `json:"tier"`
	Model      string `json:"model"`
	PrimaryErr error  `json:"-"`
}

// TieredEmbedder embeds with the remote model and falls back to the local
// one for the whole call as soon as any remote request fails. Every vector
// it returns has unit length.
type TieredEmbedder struct {
	remote  IEmbedder
	local   IBatchEmbedder
	timeout time.Duration
}

func NewTieredEmbedder(remote IEmbedder, local IBatchEmbedder, timeout time.Duration) *TieredEmbedder {
	return &TieredEmbedder{remote: remote, local: local, timeout: timeout}
}

func (t *TieredEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, EmbedOutcome, error) {
	if len(texts) == 0 {
		return [][]float32{}, EmbedOutcome{}, nil
	}
	logger := logutil.GetLogger(ctx).With(zap.String("task_type", taskType), zap.Int("count", len(texts)))

	primaryErr := ErrUnavailable
	if t.remote != nil {
		rows, err := t.embedRemote(ctx, texts, taskType)
		if err == nil {
			return normalizeRows(rows), EmbedOutcome{Tier: TierRemote, Model: t.remote.ModelName()}, nil
		}
		primaryErr = err
		logger.Warn("remote embedding failed, using local model", zap.String("model", t.remote.ModelName()), zap.Error(err))
	}
	outcome := EmbedOutcome{Tier: TierLocal, PrimaryErr: primaryErr}
	if t.local == nil {
		return nil, outcome, &EmbeddingError{Primary: primaryErr, Local: ErrUnavailable}
	}
	outcome.Model = t.local.ModelName()
	rows, err := bounded(ctx, t.timeout, func(ctx context.Context) ([][]float32, error) {
		return t.local.EmbedBatch(ctx, texts)
	})
	if err == nil && len(rows) != len(texts) {
		err = fmt.Errorf("local model returned %d vectors for %d texts", len(rows), len(texts))
	}
	if err == nil {
		err = checkDims(rows)
	}
	if err != nil {
		logger.Error("local embedding failed", zap.String("model", outcome.Model), zap.Error(err))
		return nil, outcome, &EmbeddingError{Primary: primaryErr, Local: err}
	}
	return normalizeRows(rows), outcome, nil
}

// EmbedQuery embeds a single retrieval query with the same fallback policy.
func (t *TieredEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, EmbedOutcome, error) {
	rows, outcome, err := t.EmbedBatch(ctx, []string{text}, TaskRetrievalQuery)
	if err != nil {
		return nil, outcome, err
	}
	return rows[0], outcome, nil
}

func (t *TieredEmbedder) embedRemote(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	rows := make([][]float32, 0, len(texts))
	for i, text := range texts {
		vec, err := t.embedOnce(ctx, text, taskType)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		if len(vec) == 0 {
			return nil, fmt.Errorf("embed text %d: empty vector", i)
		}
		rows = append(rows, vec)
	}
	if err := checkDims(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *TieredEmbedder) embedOnce(ctx context.Context, text, taskType string) ([]float32, error) {
	return bounded(ctx, t.timeout, func(ctx context.Context) ([]float32, error) {
		return t.remote.Embed(ctx, text, taskType)
	})
}

// bounded runs fn under timeout and returns once the deadline passes even if
// fn ignores its context. A zero timeout leaves ctx as is.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := fn(ctx)
		done <- result{val: val, err: err}
	}()
	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("embedding call: %w", ctx.Err())
	}
}

func checkDims(rows [][]float32) error {
	for i, row := range rows {
		if len(row) != len(rows[0]) {
			return fmt.Errorf("vector %d has %d values, want %d", i, len(row), len(rows[0]))
		}
	}
	return nil
}

// Normalize returns a copy of v scaled to unit L2 norm. A zero vector stays
// zero.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum) + normEpsilon
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func normalizeRows(rows [][]float32) [][]float32 {
	out := make([][]float32, len(rows))
	for i, row := range rows {
		out[i] = Normalize(row)
	}
	return out
}
