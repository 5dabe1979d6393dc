package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/docqa-go/internal/config"
	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// fakeCohere embeds a text as its counts of 'a', 'b' and 'c' and records
// every prompt it is asked to complete. Like the real API it rejects embed
// calls with more than 96 texts.
type fakeCohere struct {
	mu         sync.Mutex
	prompts    []string
	embedCalls int
	maxTexts   int
}

func vectorFor(text string) []float32 {
	return []float32{
		float32(strings.Count(text, "a")),
		float32(strings.Count(text, "b")),
		float32(strings.Count(text, "c")),
	}
}

func (f *fakeCohere) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/v1/embed":
		var req struct {
			Texts []string `json:"texts"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.embedCalls++
		f.maxTexts = max(f.maxTexts, len(req.Texts))
		f.mu.Unlock()
		if len(req.Texts) > 96 {
			http.Error(w, `{"message":"too many texts"}`, http.StatusBadRequest)
			return
		}
		out := make([][]float32, len(req.Texts))
		for i, text := range req.Texts {
			out[i] = vectorFor(text)
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": out})
	case "/v1/generate":
		var req struct {
			Prompt string `json:"prompt"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.prompts = append(f.prompts, req.Prompt)
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"generations": []map[string]string{{"text": "  generated  "}},
		})
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeCohere) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func testConfig(t *testing.T, providerURL, docURL string) *config.AppConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Document.URL = docURL
	cfg.Chunker.Size = 5
	cfg.Embedder.Cohere.BaseURL = providerURL
	cfg.LLM.Cohere.BaseURL = providerURL
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNew_BuildsIndexAndAnswers(t *testing.T) {
	provider := &fakeCohere{}
	providerSrv := httptest.NewServer(provider)
	defer providerSrv.Close()

	docSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("aaaaabbbbbccccc"))
	}))
	defer docSrv.Close()

	ctx := context.Background()
	a, err := New(ctx, testConfig(t, providerSrv.URL, docSrv.URL), nil)
	require.NoError(t, err)
	defer a.Close()

	fragments, sessions, err := a.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, fragments)
	assert.Equal(t, 0, sessions)
	assert.Equal(t, "aaaaabbbbbccccc", a.Document().Content)

	resp, err := a.Answer(ctx, entities.ChatRequest{Message: "ccc?", SessionID: "s1", HasSession: true})
	require.NoError(t, err)
	assert.Equal(t, "generated", resp.Response)
	assert.Equal(t, entities.TurnInitial, resp.Turn)
	assert.Contains(t, provider.lastPrompt(), "Context: ccccc\n")

	resp, err = a.Answer(ctx, entities.ChatRequest{Message: "and b?", SessionID: "s1", HasSession: true})
	require.NoError(t, err)
	assert.Equal(t, entities.TurnFollowUp, resp.Turn)
	assert.Contains(t, provider.lastPrompt(), "Previous question: ccc?\nFollow-up question: and b?")

	_, sessions, _ = a.Stats(ctx)
	assert.Equal(t, 1, sessions)
}

func TestNew_LargeDocumentStaysUnderEmbedLimit(t *testing.T) {
	provider := &fakeCohere{}
	providerSrv := httptest.NewServer(provider)
	defer providerSrv.Close()

	content := strings.Repeat("a", 50000)
	docSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(content))
	}))
	defer docSrv.Close()

	cfg := config.Default()
	cfg.Document.URL = docSrv.URL
	cfg.Embedder.Cohere.BaseURL = providerSrv.URL
	cfg.LLM.Cohere.BaseURL = providerSrv.URL
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	a, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	defer a.Close()

	fragments, _, err := a.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, fragments)
	assert.Equal(t, 96, provider.maxTexts)
	assert.Equal(t, 2, provider.embedCalls)
}

func TestNew_DocumentFetchFailureKeepsRunning(t *testing.T) {
	provider := &fakeCohere{}
	providerSrv := httptest.NewServer(provider)
	defer providerSrv.Close()

	docSrv := httptest.NewServer(http.NotFoundHandler())
	defer docSrv.Close()

	ctx := context.Background()
	a, err := New(ctx, testConfig(t, providerSrv.URL, docSrv.URL), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, entities.MissingDocumentContent, a.Document().Content)
	resp, err := a.Answer(ctx, entities.ChatRequest{Message: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "generated", resp.Response)
}

func TestNew_EmbeddingFailureIsFatal(t *testing.T) {
	providerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer providerSrv.Close()

	docSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("some text"))
	}))
	defer docSrv.Close()

	_, err := New(context.Background(), testConfig(t, providerSrv.URL, docSrv.URL), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrEmbedding)
}

func TestNewIndex(t *testing.T) {
	for _, typ := range []string{"memory", "sqlite", "qdrant"} {
		t.Run(typ, func(t *testing.T) {
			idx, err := NewIndex(config.IndexConfig{Type: typ, Metric: "cosine"})
			require.NoError(t, err)
			assert.NoError(t, idx.Close())
		})
	}

	_, err := NewIndex(config.IndexConfig{Type: "faiss"})
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
	_, err = NewIndex(config.IndexConfig{Metric: "hamming"})
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
}

func TestNewProviders(t *testing.T) {
	for _, typ := range []string{"cohere", "ollama"} {
		_, err := NewEmbedder(config.ProviderConfig{Type: typ}, nil)
		assert.NoError(t, err)
		_, err = NewLLM(config.ProviderConfig{Type: typ}, nil)
		assert.NoError(t, err)
	}
	_, err := NewEmbedder(config.ProviderConfig{Type: "openai"}, nil)
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
	_, err = NewLLM(config.ProviderConfig{Type: "openai"}, nil)
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
}

func TestWatchPath(t *testing.T) {
	a := &App{cfg: config.Default()}
	a.cfg.Document.URL = "/srv/docs/faq.txt"
	path, ok := a.WatchPath()
	assert.True(t, ok)
	assert.Equal(t, "/srv/docs/faq.txt", path)

	a.cfg.Document.URL = "https://example.com/faq.txt"
	_, ok = a.WatchPath()
	assert.False(t, ok)

	a.cfg.Document.URL = "/srv/docs/faq.txt"
	a.cfg.Server.WatchDocument = false
	_, ok = a.WatchPath()
	assert.False(t, ok)
}
