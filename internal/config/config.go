// Package config loads the service configuration from YAML, .env and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DocumentConfig points at the single document to serve.
type DocumentConfig struct {
	URL         string `yaml:"url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChunkerConfig configures fixed-window chunking.
type ChunkerConfig struct {
	Size int `yaml:"size"`
}

// CohereConfig holds Cohere API settings shared by embedder and generator.
type CohereConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens,omitempty"`

	// APIKey is resolved from APIKeyEnv at load time and never written back.
	APIKey string `yaml:"-"`
}

// OllamaConfig holds settings for a local Ollama server.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`

	// BatchSize caps texts per embed request. Zero sends one request.
	BatchSize int `yaml:"batch_size,omitempty"`
}

// ProviderConfig selects and configures an embedding or generation provider.
type ProviderConfig struct {
	Type   string        `yaml:"type"`
	Cohere *CohereConfig `yaml:"cohere,omitempty"`
	Ollama *OllamaConfig `yaml:"ollama,omitempty"`
}

// SQLiteConfig configures the SQLite index backend.
type SQLiteConfig struct {
	DSN string `yaml:"dsn"`
}

// QdrantConfig contains connection details for a Qdrant collection.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// IndexConfig selects the fragment index backend and its ranking.
type IndexConfig struct {
	Type   string        `yaml:"type"`
	Metric string        `yaml:"metric"`
	Cutoff *float64      `yaml:"cutoff,omitempty"`
	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// SessionConfig bounds the session store.
type SessionConfig struct {
	MaxSessions int `yaml:"max_sessions"`
	TTLSecs     int `yaml:"ttl_secs"`
}

// PromptConfig configures the prompt template.
type PromptConfig struct {
	Persona         string `yaml:"persona"`
	MaxContextChars int    `yaml:"max_context_chars"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host          string  `yaml:"host"`
	Port          int     `yaml:"port"`
	RateLimit     float64 `yaml:"rate_limit"`
	RateBurst     int     `yaml:"rate_burst"`
	WatchDocument bool    `yaml:"watch_document"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Document DocumentConfig `yaml:"document"`
	Chunker  ChunkerConfig  `yaml:"chunker"`
	Embedder ProviderConfig `yaml:"embedder"`
	LLM      ProviderConfig `yaml:"llm"`
	Index    IndexConfig    `yaml:"index"`
	Sessions SessionConfig  `yaml:"sessions"`
	Prompt   PromptConfig   `yaml:"prompt"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// Load reads .env (if present), the YAML file at path and the environment.
// An empty path or a missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the stock configuration: Cohere for both
// embedding and generation, an in-memory index, port 5000.
func Default() *AppConfig {
	cfg := &AppConfig{
		Chunker:  ChunkerConfig{Size: 500},
		Embedder: ProviderConfig{Type: "cohere"},
		LLM:      ProviderConfig{Type: "cohere"},
		Index:    IndexConfig{Type: "memory", Metric: "dot"},
		Sessions: SessionConfig{MaxSessions: 10000},
		Prompt:   PromptConfig{Persona: "DocBot"},
		Server:   ServerConfig{Host: "0.0.0.0", Port: 5000, WatchDocument: true},
		Log:      LogConfig{Level: "info", Format: "json"},
	}
	applyDefaults(cfg)
	return cfg
}

func applyEnv(cfg *AppConfig) {
	if v := firstEnv("doc_url", "DOC_URL"); v != "" {
		cfg.Document.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DOCQA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DOCQA_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 500
	}
	if cfg.Document.TimeoutSecs == 0 {
		cfg.Document.TimeoutSecs = 30
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "cohere"
	}
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "cohere"
	}
	providerDefaults(&cfg.Embedder, "small", "nomic-embed-text", 0)
	providerDefaults(&cfg.LLM, "command-xlarge-nightly", "llama3.2", 200)

	if cfg.Index.Type == "" {
		cfg.Index.Type = "memory"
	}
	if cfg.Index.Type == "sqlite" && cfg.Index.SQLite == nil {
		cfg.Index.SQLite = &SQLiteConfig{}
	}
	if cfg.Index.Type == "qdrant" {
		if cfg.Index.Qdrant == nil {
			cfg.Index.Qdrant = &QdrantConfig{}
		}
		if cfg.Index.Qdrant.URL == "" {
			cfg.Index.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.Index.Qdrant.Collection == "" {
			cfg.Index.Qdrant.Collection = "docqa"
		}
		if cfg.Index.Qdrant.TimeoutSecs == 0 {
			cfg.Index.Qdrant.TimeoutSecs = 15
		}
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 1
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

func providerDefaults(p *ProviderConfig, cohereModel, ollamaModel string, maxTokens int) {
	switch p.Type {
	case "cohere":
		if p.Cohere == nil {
			p.Cohere = &CohereConfig{}
		}
		if p.Cohere.BaseURL == "" {
			p.Cohere.BaseURL = "https://api.cohere.ai"
		}
		if p.Cohere.APIKeyEnv == "" {
			p.Cohere.APIKeyEnv = "CO_API_KEY"
		}
		if p.Cohere.Model == "" {
			p.Cohere.Model = cohereModel
		}
		if p.Cohere.MaxTokens == 0 {
			p.Cohere.MaxTokens = maxTokens
		}
		p.Cohere.APIKey = os.Getenv(p.Cohere.APIKeyEnv)
	case "ollama":
		if p.Ollama == nil {
			p.Ollama = &OllamaConfig{}
		}
		if p.Ollama.BaseURL == "" {
			p.Ollama.BaseURL = "http://localhost:11434"
		}
		if p.Ollama.Model == "" {
			p.Ollama.Model = ollamaModel
		}
	}
}

// Validate rejects unknown component names and impossible sizes.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Chunker.Size <= 0 {
		errs = append(errs, fmt.Errorf("chunker.size must be positive, got %d", c.Chunker.Size))
	}
	if !oneOf(c.Embedder.Type, "cohere", "ollama") {
		errs = append(errs, fmt.Errorf("unknown embedder %q", c.Embedder.Type))
	}
	if !oneOf(c.LLM.Type, "cohere", "ollama") {
		errs = append(errs, fmt.Errorf("unknown llm %q", c.LLM.Type))
	}
	if !oneOf(c.Index.Type, "memory", "sqlite", "qdrant") {
		errs = append(errs, fmt.Errorf("unknown index %q", c.Index.Type))
	}
	if !oneOf(strings.ToLower(c.Index.Metric), "", "dot", "dot_product", "cosine", "euclidean", "l2") {
		errs = append(errs, fmt.Errorf("unknown index metric %q", c.Index.Metric))
	}
	if c.Sessions.MaxSessions < 0 {
		errs = append(errs, fmt.Errorf("sessions.max_sessions must not be negative"))
	}
	if c.Sessions.TTLSecs < 0 {
		errs = append(errs, fmt.Errorf("sessions.ttl_secs must not be negative"))
	}
	if c.Prompt.MaxContextChars < 0 {
		errs = append(errs, fmt.Errorf("prompt.max_context_chars must not be negative"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns the listen address.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func oneOf(v string, options ...string) bool {
	return slices.Contains(options, v)
}
