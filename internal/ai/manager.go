package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// DefaultFallbackModels are tried after the configured model.
var DefaultFallbackModels = []string{
	"gemini-1.5-flash",
	"gemini-1.5-pro",
	"gemini-1.0-pro",
	"gemini-pro",
}

var errEmptyResponse = errors.New("empty ai response")

// Backend is a generation provider and the models to try on it, in order.
type Backend struct {
	Provider IGenerateProvider
	Models   []string
}

type ManagerConfig struct {
	// Timeout bounds every single generation attempt.
	Timeout time.Duration
	// Discover enables one extra round over models reported by providers
	// that implement IModelLister.
	Discover bool
}

// Manager generates text by walking the candidate models of its backends
// until one returns a non-empty answer.
type Manager struct {
	backends []Backend
	cfg      ManagerConfig
}

func NewManager(backends []Backend, cfg ManagerConfig) *Manager {
	return &Manager{backends: backends, cfg: cfg}
}

func (m *Manager) Generate(ctx context.Context, prompt string) (*Outcome, error) {
	tried := make(map[string]struct{})
	items := m.candidates(tried)
	if len(items) == 0 {
		return nil, &GenerationError{Last: ErrUnavailable}
	}
	group := newGroupGenerator(items, m.cfg.Timeout)
	out, attempts, err := group.run(ctx, prompt, nil)
	if err == nil {
		return out, nil
	}
	lastErr := err
	if m.cfg.Discover {
		if extra := m.discover(ctx, tried); len(extra) > 0 {
			logutil.GetLogger(ctx).Info("retrying generation with discovered models", zap.Int("count", len(extra)))
			out, attempts, err = newGroupGenerator(extra, m.cfg.Timeout).run(ctx, prompt, attempts)
			if err == nil {
				return out, nil
			}
			lastErr = err
		}
	}
	return nil, &GenerationError{Attempts: attempts, Last: lastErr}
}

// Models lists the configured candidates in the order they are tried.
func (m *Manager) Models() []string {
	items := m.candidates(make(map[string]struct{}))
	res := make([]string, 0, len(items))
	for _, item := range items {
		res = append(res, item.Provider+"/"+item.Model)
	}
	return res
}

func (m *Manager) candidates(tried map[string]struct{}) []GeneratorEntry {
	var items []GeneratorEntry
	for _, b := range m.backends {
		if b.Provider == nil {
			continue
		}
		for _, model := range b.Models {
			model = strings.TrimSpace(model)
			if model == "" {
				continue
			}
			key := candidateKey(b.Provider.Name(), model)
			if _, ok := tried[key]; ok {
				continue
			}
			tried[key] = struct{}{}
			items = append(items, GeneratorEntry{
				Provider:  b.Provider.Name(),
				Model:     model,
				Generator: NewGenerator(b.Provider, model),
			})
		}
	}
	return items
}

func (m *Manager) discover(ctx context.Context, tried map[string]struct{}) []GeneratorEntry {
	var items []GeneratorEntry
	for _, b := range m.backends {
		lister, ok := b.Provider.(IModelLister)
		if !ok {
			continue
		}
		listCtx := ctx
		var cancel context.CancelFunc = func() {}
		if m.cfg.Timeout > 0 {
			listCtx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		}
		models, err := lister.ListModels(listCtx)
		cancel()
		if err != nil {
			logutil.GetLogger(ctx).Warn("list models failed", zap.String("provider", b.Provider.Name()), zap.Error(err))
			continue
		}
		items = append(items, (&Manager{backends: []Backend{{Provider: b.Provider, Models: models}}}).candidates(tried)...)
	}
	return items
}

func candidateKey(provider, model string) string {
	return provider + "|" + strings.TrimPrefix(model, "models/")
}
