package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"doc_url", "DOC_URL", "PORT", "CO_API_KEY", "DOCQA_LOG_LEVEL", "DOCQA_LOG_FORMAT"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunker.Size)
	assert.Equal(t, "cohere", cfg.Embedder.Type)
	assert.Equal(t, "small", cfg.Embedder.Cohere.Model)
	assert.Equal(t, "command-xlarge-nightly", cfg.LLM.Cohere.Model)
	assert.Equal(t, 200, cfg.LLM.Cohere.MaxTokens)
	assert.Equal(t, "memory", cfg.Index.Type)
	assert.Nil(t, cfg.Index.Cutoff)
	assert.Equal(t, 10000, cfg.Sessions.MaxSessions)
	assert.Equal(t, "0.0.0.0:5000", cfg.Addr())
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
document:
  url: https://example.com/faq.txt
chunker:
  size: 250
embedder:
  type: ollama
  ollama:
    model: mxbai-embed-large
    batch_size: 64
llm:
  type: ollama
index:
  type: sqlite
  metric: cosine
  cutoff: 0.35
sessions:
  max_sessions: 50
  ttl_secs: 600
prompt:
  persona: Capi
  max_context_chars: 1200
server:
  port: 8080
  rate_limit: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/faq.txt", cfg.Document.URL)
	assert.Equal(t, 250, cfg.Chunker.Size)
	assert.Equal(t, "mxbai-embed-large", cfg.Embedder.Ollama.Model)
	assert.Equal(t, 64, cfg.Embedder.Ollama.BatchSize)
	assert.Equal(t, "http://localhost:11434", cfg.Embedder.Ollama.BaseURL)
	assert.Equal(t, "llama3.2", cfg.LLM.Ollama.Model)
	require.NotNil(t, cfg.Index.Cutoff)
	assert.InDelta(t, 0.35, *cfg.Index.Cutoff, 1e-9)
	require.NotNil(t, cfg.Index.SQLite)
	assert.Equal(t, 50, cfg.Sessions.MaxSessions)
	assert.Equal(t, 600, cfg.Sessions.TTLSecs)
	assert.Equal(t, "Capi", cfg.Prompt.Persona)
	assert.Equal(t, 1200, cfg.Prompt.MaxContextChars)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 1, cfg.Server.RateBurst)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("doc_url", "https://example.com/doc.txt")
	t.Setenv("PORT", "9090")
	t.Setenv("CO_API_KEY", "secret")
	t.Setenv("DOCQA_LOG_LEVEL", "debug")

	path := writeConfig(t, "document:\n  url: https://ignored.example\nserver:\n  port: 7000\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/doc.txt", cfg.Document.URL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Embedder.Cohere.APIKey)
	assert.Equal(t, "secret", cfg.LLM.Cohere.APIKey)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_UpperCaseDocURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOC_URL", "https://example.com/upper.txt")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/upper.txt", cfg.Document.URL)
}

func TestLoad_QdrantDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "index:\n  type: qdrant\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Index.Qdrant)
	assert.Equal(t, "http://localhost:6333", cfg.Index.Qdrant.URL)
	assert.Equal(t, "docqa", cfg.Index.Qdrant.Collection)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"chunk size", "chunker:\n  size: -1\n", "chunker.size"},
		{"embedder", "embedder:\n  type: openai\n", "unknown embedder"},
		{"index", "index:\n  type: faiss\n", "unknown index"},
		{"metric", "index:\n  metric: manhattan\n", "unknown index metric"},
		{"port", "server:\n  port: 70000\n", "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "chunker: [unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
