package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedderBatch(t *testing.T) {
	var got ollamaEmbedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		out := ollamaEmbedResponse{}
		for range got.Input {
			out.Embeddings = append(out.Embeddings, []float32{0.1, 0.2, 0.3})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	e, err := NewLocalEmbedder("ollama", "all-minilm", map[string]interface{}{"base_url": srv.URL})
	require.NoError(t, err)
	rows, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, []string{"a", "b"}, got.Input)
	require.Equal(t, "all-minilm", got.Model)
}

func TestOllamaEmbedderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	e, err := NewLocalEmbedder("ollama", "missing", map[string]interface{}{"base_url": srv.URL})
	require.NoError(t, err)
	_, err = e.EmbedBatch(context.Background(), []string{"a"})
	require.ErrorContains(t, err, "model not found")
}

func TestOpenAIProviderAgainstCompatibleServer(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"role": "assistant", "content": " hi there "}}},
		})
	})
	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"index": 1, "embedding": []float32{0, 1}},
				{"index": 0, "embedding": []float32{1, 0}},
			},
		})
	})
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{"id": "gpt-4o-mini"}, {"id": "whisper-1"}, {"id": "gpt-4o"}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	args := map[string]interface{}{"base_url": srv.URL + "/v1", "api_key": "k"}
	gen, err := NewProvider("openai", args)
	require.NoError(t, err)
	text, err := gen.Generate(context.Background(), "gpt-4o-mini", "hello")
	require.NoError(t, err)
	require.Equal(t, "hi there", text)

	models, err := gen.(IModelLister).ListModels(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, models)

	local, err := NewLocalEmbedder("openai", "nomic", args)
	require.NoError(t, err)
	rows, err := local.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Equal(t, [][]float32{{1, 0}, {0, 1}}, rows)
}

func TestOpenAILocalEmbedderHonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	local, err := NewLocalEmbedder("openai", "nomic", map[string]interface{}{"base_url": srv.URL + "/v1", "timeout_seconds": 1})
	require.NoError(t, err)
	start := time.Now()
	_, err = local.EmbedBatch(context.Background(), []string{"slow"})
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestProvidersWithoutKeyAreUnavailable(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	for _, name := range []string{"gemini", "openai", "anthropic"} {
		p, err := NewProvider(name, nil)
		require.NoError(t, err, name)
		_, err = p.Generate(context.Background(), "m", "q")
		require.ErrorIs(t, err, ErrUnavailable, name)
	}
	ep, err := NewEmbedProvider("gemini", nil)
	require.NoError(t, err)
	_, err = ep.Embed(context.Background(), "m", "q", TaskRetrievalQuery)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestRegistryRejectsUnknown(t *testing.T) {
	_, err := NewProvider("", nil)
	require.Error(t, err)
	_, err = NewProvider("nope", nil)
	require.Error(t, err)
	_, err = NewLocalEmbedder("nope", "", nil)
	require.Error(t, err)
}
