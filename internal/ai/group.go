package ai

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// GeneratorEntry is one candidate in an ordered generation attempt list.
type GeneratorEntry struct {
	Provider  string
	Model     string
	Generator IGenerator
}

// Outcome is the result of a successful generation together with every
// attempt made on the way.
type Outcome struct {
	Text     string    `json:"text"`
	Provider string    `json:"provider"`
	Model    string    `json:"model"`
	Attempts []Attempt `json:"attempts"`
}

type groupGenerator struct {
	items   []GeneratorEntry
	timeout time.Duration
}

func newGroupGenerator(items []GeneratorEntry, timeout time.Duration) *groupGenerator {
	return &groupGenerator{items: items, timeout: timeout}
}

// run tries each entry in order and stops at the first non-empty answer.
// Failed attempts are appended to attempts.
func (g *groupGenerator) run(ctx context.Context, prompt string, attempts []Attempt) (*Outcome, []Attempt, error) {
	var lastErr error
	for i, item := range g.items {
		if item.Generator == nil {
			continue
		}
		text, err := g.generateOnce(ctx, item.Generator, prompt)
		if err == nil {
			return &Outcome{Text: text, Provider: item.Provider, Model: item.Model, Attempts: attempts}, attempts, nil
		}
		lastErr = err
		attempts = append(attempts, Attempt{Provider: item.Provider, Model: item.Model, Err: err})
		logutil.GetLogger(ctx).Warn("generator failed",
			zap.Int("index", i),
			zap.String("provider", item.Provider),
			zap.String("model", item.Model),
			zap.Error(err),
		)
	}
	return nil, attempts, lastErr
}

func (g *groupGenerator) generateOnce(ctx context.Context, gen IGenerator, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	resp, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}
