package ai

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenAITimeout     = 60 * time.Second
)

type openAIConfig struct {
	APIKey      string `json:"api_key"`
	BaseURL     string `json:"base_url"`
	ModelFilter string `json:"model_filter"`
	HTTPReferer string `json:"http_referer"`
	XTitle      string `json:"x_title"`

	// TimeoutSeconds bounds each HTTP request. Defaults to 60.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// openAIProvider talks to any OpenAI compatible endpoint.
type openAIProvider struct {
	name        string
	client      *openai.Client
	modelFilter string
	configured  bool
}

func (p *openAIProvider) Name() string {
	return p.name
}

func (p *openAIProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	if !p.configured {
		return "", ErrUnavailable
	}
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *openAIProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	rows, err := p.embed(ctx, model, []string{text})
	if err != nil {
		return nil, err
	}
	return rows[0], nil
}

func (p *openAIProvider) embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if !p.configured {
		return nil, ErrUnavailable
	}
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}
	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	rows := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at %d", i)
		}
		rows[i] = d.Embedding
	}
	return rows, nil
}

// ListModels returns model ids containing the configured filter. Without a
// filter nothing is reported.
func (p *openAIProvider) ListModels(ctx context.Context) ([]string, error) {
	if !p.configured {
		return nil, ErrUnavailable
	}
	if p.modelFilter == "" {
		return nil, nil
	}
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	var res []string
	for _, m := range list.Models {
		if strings.Contains(m.ID, p.modelFilter) {
			res = append(res, m.ID)
		}
	}
	sort.Strings(res)
	return res, nil
}

type openAIBatchEmbedder struct {
	provider *openAIProvider
	model    string
}

func (e *openAIBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.provider.embed(ctx, e.model, texts)
}

func (e *openAIBatchEmbedder) ModelName() string {
	return e.model
}

type headerTransport struct {
	next    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.next.RoundTrip(req)
}

func newOpenAIProvider(name string, args interface{}, defaultBaseURL, envKey, defaultFilter string) (*openAIProvider, error) {
	cfg := &openAIConfig{ModelFilter: defaultFilter}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" && envKey != "" {
		key = strings.TrimSpace(os.Getenv(envKey))
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	clientCfg := openai.DefaultConfig(key)
	if baseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	headers := map[string]string{}
	if cfg.HTTPReferer != "" {
		headers["HTTP-Referer"] = cfg.HTTPReferer
	}
	if cfg.XTitle != "" {
		headers["X-Title"] = cfg.XTitle
	}
	var transport http.RoundTripper = http.DefaultTransport
	if len(headers) > 0 {
		transport = &headerTransport{next: transport, headers: headers}
	}
	timeout := defaultOpenAITimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Transport: transport, Timeout: timeout}
	return &openAIProvider{
		name:        name,
		client:      openai.NewClientWithConfig(clientCfg),
		modelFilter: cfg.ModelFilter,
		// a custom base url usually points at a self hosted server without auth
		configured: key != "" || strings.TrimSpace(cfg.BaseURL) != "",
	}, nil
}

func init() {
	Register("openai", func(args interface{}) (IGenerateProvider, error) {
		return newOpenAIProvider("openai", args, "", "OPENAI_API_KEY", "gpt-")
	})
	RegisterEmbed("openai", func(args interface{}) (IEmbedProvider, error) {
		return newOpenAIProvider("openai", args, "", "OPENAI_API_KEY", "")
	})
	RegisterLocal("openai", func(model string, args interface{}) (IBatchEmbedder, error) {
		p, err := newOpenAIProvider("openai", args, "", "OPENAI_API_KEY", "")
		if err != nil {
			return nil, err
		}
		return &openAIBatchEmbedder{provider: p, model: model}, nil
	})
	Register("openrouter", func(args interface{}) (IGenerateProvider, error) {
		return newOpenAIProvider("openrouter", args, defaultOpenRouterBaseURL, "OPENROUTER_API_KEY", "")
	})
}
