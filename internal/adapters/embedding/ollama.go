// Package embedding provides embedding adapters.
// Each one implements ports.EmbeddingService; the domain layer does not know
// which provider it talks to.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/adapters/httpjson"
	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// OllamaAdapter implements ports.EmbeddingService using the Ollama API.
type OllamaAdapter struct {
	baseURL   string
	model     string
	batchSize int
	client    *http.Client
	logger    *slog.Logger
}

// NewOllamaAdapter creates a new Ollama embedding adapter. batchSize caps
// the texts sent per request; zero or less sends everything at once.
func NewOllamaAdapter(baseURL, model string, batchSize int, logger *slog.Logger) *OllamaAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	if batchSize < 0 {
		batchSize = 0
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OllamaAdapter{
		baseURL:   baseURL,
		model:     model,
		batchSize: batchSize,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// MaxBatchSize returns the configured per-request cap.
func (a *OllamaAdapter) MaxBatchSize() int { return a.batchSize }

// ollamaEmbedRequest is the /api/embed request format.
type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// ollamaEmbedResponse is the /api/embed response format.
type ollamaEmbedResponse struct {
	Embeddings []entities.Embedding `json:"embeddings"`
}

// EmbedBatch embeds all texts with a single /api/embed call.
func (a *OllamaAdapter) EmbedBatch(ctx context.Context, texts []string) ([]entities.Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	a.logger.Debug("embedding_request", "provider", "ollama", "model", a.model, "texts", len(texts))

	var embedResp ollamaEmbedResponse
	err := httpjson.Post(ctx, a.client, a.baseURL+"/api/embed", "", ollamaEmbedRequest{
		Model: a.model,
		Input: texts,
	}, &embedResp)
	if err != nil {
		a.logger.Error("embedding_failed", "provider", "ollama", "error", err)
		return nil, fmt.Errorf("%w: ollama: %v", entities.ErrEmbedding, err)
	}

	if len(embedResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: ollama returned %d embeddings for %d texts",
			entities.ErrEmbedding, len(embedResp.Embeddings), len(texts))
	}
	return embedResp.Embeddings, nil
}
