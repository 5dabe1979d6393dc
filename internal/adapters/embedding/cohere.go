package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/adapters/httpjson"
	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

const (
	// DefaultCohereURL is the public Cohere API endpoint.
	DefaultCohereURL = "https://api.cohere.ai"

	// CohereMaxBatchSize is the most texts /v1/embed accepts per call.
	CohereMaxBatchSize = 96
)

// CohereAdapter implements ports.EmbeddingService using the Cohere embed API.
type CohereAdapter struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// NewCohereAdapter creates a Cohere embedding adapter. An empty model
// selects "small".
func NewCohereAdapter(baseURL, apiKey, model string, logger *slog.Logger) *CohereAdapter {
	if baseURL == "" {
		baseURL = DefaultCohereURL
	}
	if model == "" {
		model = "small"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CohereAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

// MaxBatchSize returns the /v1/embed per-call limit.
func (a *CohereAdapter) MaxBatchSize() int { return CohereMaxBatchSize }

type cohereEmbedRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model"`
}

type cohereEmbedResponse struct {
	Embeddings []entities.Embedding `json:"embeddings"`
}

// EmbedBatch embeds all texts with a single /v1/embed call.
func (a *CohereAdapter) EmbedBatch(ctx context.Context, texts []string) ([]entities.Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	a.logger.Debug("embedding_request", "provider", "cohere", "model", a.model, "texts", len(texts))

	var embedResp cohereEmbedResponse
	err := httpjson.Post(ctx, a.client, a.baseURL+"/v1/embed", a.apiKey, cohereEmbedRequest{
		Texts: texts,
		Model: a.model,
	}, &embedResp)
	if err != nil {
		a.logger.Error("embedding_failed", "provider", "cohere", "error", err)
		return nil, fmt.Errorf("%w: cohere: %v", entities.ErrEmbedding, err)
	}

	if len(embedResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: cohere returned %d embeddings for %d texts",
			entities.ErrEmbedding, len(embedResp.Embeddings), len(texts))
	}
	return embedResp.Embeddings, nil
}
