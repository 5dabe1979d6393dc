// Package app assembles the process-wide state from configuration: the
// document, the fragment index, the session store and the orchestrator.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/adapters/embedding"
	"github.com/0xcro3dile/docqa-go/internal/adapters/llm"
	"github.com/0xcro3dile/docqa-go/internal/adapters/loader"
	"github.com/0xcro3dile/docqa-go/internal/adapters/session"
	"github.com/0xcro3dile/docqa-go/internal/adapters/vectordb"
	"github.com/0xcro3dile/docqa-go/internal/config"
	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
	"github.com/0xcro3dile/docqa-go/internal/domain/usecases"
)

// Index is a fragment index that holds resources.
type Index interface {
	ports.FragmentIndex
	io.Closer
}

// App is built once at startup and shared by reference with every handler.
type App struct {
	cfg      *config.AppConfig
	logger   *slog.Logger
	document *entities.Document
	index    Index
	sessions *session.MemoryStore
	query    *usecases.QueryUseCase
}

// New fetches the document, builds the index and wires the orchestrator.
// A failed document fetch is logged and the service runs on the placeholder
// content; a failed index build is returned.
func New(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	embedder, err := NewEmbedder(cfg.Embedder, logger)
	if err != nil {
		return nil, err
	}
	generator, err := NewLLM(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	index, err := NewIndex(cfg.Index)
	if err != nil {
		return nil, err
	}

	docLoader := loader.NewMultiLoader(time.Duration(cfg.Document.TimeoutSecs)*time.Second, logger)
	doc, err := docLoader.Load(ctx, cfg.Document.URL)
	if err != nil {
		if !errors.Is(err, entities.ErrDocumentFetch) {
			index.Close()
			return nil, err
		}
		logger.Error("document_unavailable", "source", cfg.Document.URL, "error", err)
	}

	ingest := usecases.NewIngestUseCase(embedder, index, cfg.Chunker.Size, logger)
	if _, err := ingest.Ingest(ctx, doc); err != nil {
		index.Close()
		return nil, fmt.Errorf("building index: %w", err)
	}

	sessions := session.NewMemoryStore(session.Options{
		MaxSessions: cfg.Sessions.MaxSessions,
		TTL:         time.Duration(cfg.Sessions.TTLSecs) * time.Second,
	})
	prompts := usecases.NewPromptBuilder(cfg.Prompt.Persona, cfg.Prompt.MaxContextChars)

	return &App{
		cfg:      cfg,
		logger:   logger,
		document: doc,
		index:    index,
		sessions: sessions,
		query:    usecases.NewQueryUseCase(embedder, index, sessions, generator, prompts, logger),
	}, nil
}

// NewEmbedder selects the embedding provider.
func NewEmbedder(cfg config.ProviderConfig, logger *slog.Logger) (ports.EmbeddingService, error) {
	switch cfg.Type {
	case "cohere":
		c := cfg.Cohere
		if c == nil {
			c = &config.CohereConfig{}
		}
		return embedding.NewCohereAdapter(c.BaseURL, c.APIKey, c.Model, logger), nil
	case "ollama":
		o := cfg.Ollama
		if o == nil {
			o = &config.OllamaConfig{}
		}
		return embedding.NewOllamaAdapter(o.BaseURL, o.Model, o.BatchSize, logger), nil
	default:
		return nil, fmt.Errorf("unknown embedder %q: %w", cfg.Type, entities.ErrInvalidInput)
	}
}

// NewLLM selects the generation provider.
func NewLLM(cfg config.ProviderConfig, logger *slog.Logger) (ports.LLMService, error) {
	switch cfg.Type {
	case "cohere":
		c := cfg.Cohere
		if c == nil {
			c = &config.CohereConfig{}
		}
		return llm.NewCohereLLMAdapter(c.BaseURL, c.APIKey, c.Model, c.MaxTokens, logger), nil
	case "ollama":
		o := cfg.Ollama
		if o == nil {
			o = &config.OllamaConfig{}
		}
		return llm.NewOllamaLLMAdapter(o.BaseURL, o.Model, logger), nil
	default:
		return nil, fmt.Errorf("unknown llm %q: %w", cfg.Type, entities.ErrInvalidInput)
	}
}

// NewIndex selects the fragment index backend.
func NewIndex(cfg config.IndexConfig) (Index, error) {
	metric, err := vectordb.ParseMetric(cfg.Metric)
	if err != nil {
		return nil, err
	}
	opts := vectordb.Options{Metric: metric, Cutoff: cfg.Cutoff}

	switch cfg.Type {
	case "", "memory":
		return vectordb.NewMemoryIndex(opts), nil
	case "sqlite":
		dsn := ""
		if cfg.SQLite != nil {
			dsn = cfg.SQLite.DSN
		}
		return vectordb.NewSQLiteIndex(dsn, opts)
	case "qdrant":
		q := cfg.Qdrant
		if q == nil {
			q = &config.QdrantConfig{}
		}
		return vectordb.NewQdrantIndex(vectordb.QdrantConfig{
			URL:        q.URL,
			APIKey:     q.APIKey,
			Collection: q.Collection,
			Timeout:    time.Duration(q.TimeoutSecs) * time.Second,
		}, opts), nil
	default:
		return nil, fmt.Errorf("unknown index %q: %w", cfg.Type, entities.ErrInvalidInput)
	}
}

// Answer delegates to the orchestrator.
func (a *App) Answer(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error) {
	return a.query.Answer(ctx, req)
}

// Stats reports the number of loaded fragments and live sessions.
func (a *App) Stats(ctx context.Context) (fragments, sessions int, err error) {
	fragments, err = a.index.Len(ctx)
	return fragments, a.sessions.Len(), err
}

// Query returns the orchestrator.
func (a *App) Query() *usecases.QueryUseCase { return a.query }

// Sessions returns the session store.
func (a *App) Sessions() ports.SessionStore { return a.sessions }

// Index returns the fragment index.
func (a *App) Index() ports.FragmentIndex { return a.index }

// Document returns the document fetched at startup.
func (a *App) Document() *entities.Document { return a.document }

// Config returns the configuration the app was built from.
func (a *App) Config() *config.AppConfig { return a.cfg }

// WatchPath returns the local file backing the document, if any.
func (a *App) WatchPath() (string, bool) {
	if !a.cfg.Server.WatchDocument {
		return "", false
	}
	return loader.LocalPath(a.cfg.Document.URL)
}

// Close releases the index backend.
func (a *App) Close() error {
	return a.index.Close()
}
