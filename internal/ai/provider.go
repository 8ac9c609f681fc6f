package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// IGenerateProvider produces text with a named model.
type IGenerateProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string) (string, error)
}

// IModelLister is implemented by generation providers that can report which
// of their models support content generation.
type IModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// IEmbedProvider embeds one text at a time with a named model.
type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
	ModelName() string
}

// IBatchEmbedder embeds a whole batch in one call. Local models implement it.
type IBatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

type generator struct {
	provider IGenerateProvider
	model    string
}

func NewGenerator(p IGenerateProvider, model string) IGenerator {
	return &generator{provider: p, model: model}
}

func (g *generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.provider.Generate(ctx, g.model, prompt)
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text, taskType)
}

func (e *embedder) ModelName() string {
	return e.model
}

type (
	GenerateFactory func(args interface{}) (IGenerateProvider, error)
	EmbedFactory    func(args interface{}) (IEmbedProvider, error)
	LocalFactory    func(model string, args interface{}) (IBatchEmbedder, error)
)

var (
	registryMu    sync.RWMutex
	generateReg   = map[string]GenerateFactory{}
	embedReg      = map[string]EmbedFactory{}
	localEmbedReg = map[string]LocalFactory{}
)

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func Register(name string, factory GenerateFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	generateReg[key] = factory
	registryMu.Unlock()
}

func RegisterEmbed(name string, factory EmbedFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	embedReg[key] = factory
	registryMu.Unlock()
}

func RegisterLocal(name string, factory LocalFactory) {
	key := normalizeName(name)
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	localEmbedReg[key] = factory
	registryMu.Unlock()
}

func NewProvider(name string, args interface{}) (IGenerateProvider, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("ai.generation.provider is required")
	}
	registryMu.RLock()
	factory := generateReg[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported generation provider: %s", name)
	}
	return factory(args)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("ai.embedding.provider is required")
	}
	registryMu.RLock()
	factory := embedReg[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported embedding provider: %s", name)
	}
	return factory(args)
}

func NewLocalEmbedder(name string, model string, args interface{}) (IBatchEmbedder, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, fmt.Errorf("ai.local_embedding.provider is required")
	}
	registryMu.RLock()
	factory := localEmbedReg[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported local embedding provider: %s", name)
	}
	return factory(model, args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
