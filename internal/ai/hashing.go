package ai

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
)

// defaultHashingDim matches text-embedding-004 so a query that falls back to
// the local tier still fits an index built remotely.
const defaultHashingDim = 768

type hashingConfig struct {
	Dimension int `json:"dimension"`
}

// hashingEmbedder is an in-process bag of words model. Every token is hashed
// into one of dim buckets with a sign taken from a second hash bit, so it
// needs no vocabulary and no network.
type hashingEmbedder struct {
	dim          int
	model        string
	tokenPattern *regexp.Regexp
}

func NewHashingEmbedder(dim int) IBatchEmbedder {
	if dim <= 0 {
		dim = defaultHashingDim
	}
	return &hashingEmbedder{
		dim:          dim,
		model:        "hashing",
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*`),
	}
}

func (h *hashingEmbedder) ModelName() string {
	return h.model
}

func (h *hashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	rows := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows[i] = h.embed(text)
	}
	return rows, nil
}

func (h *hashingEmbedder) embed(text string) []float32 {
	vec := make([]float32, h.dim)
	for _, tok := range h.tokenPattern.FindAllString(strings.ToLower(text), -1) {
		hs := fnv.New64a()
		_, _ = hs.Write([]byte(tok))
		sum := hs.Sum64()
		bucket := int(sum % uint64(h.dim))
		if sum&(1<<63) != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}
	return vec
}

func init() {
	RegisterLocal("hashing", func(model string, args interface{}) (IBatchEmbedder, error) {
		cfg := &hashingConfig{}
		if err := decodeConfig(args, cfg); err != nil {
			return nil, err
		}
		e := NewHashingEmbedder(cfg.Dimension).(*hashingEmbedder)
		if model != "" {
			e.model = model
		}
		return e, nil
	})
}
