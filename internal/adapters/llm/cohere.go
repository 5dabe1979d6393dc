package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/adapters/httpjson"
)

// Cohere generation defaults.
const (
	DefaultCohereURL       = "https://api.cohere.ai"
	DefaultCohereModel     = "command-xlarge-nightly"
	DefaultCohereMaxTokens = 200
)

// CohereLLMAdapter implements ports.LLMService using the Cohere generate API.
type CohereLLMAdapter struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
	logger    *slog.Logger
}

// NewCohereLLMAdapter creates a Cohere generation adapter.
func NewCohereLLMAdapter(baseURL, apiKey, model string, maxTokens int, logger *slog.Logger) *CohereLLMAdapter {
	if baseURL == "" {
		baseURL = DefaultCohereURL
	}
	if model == "" {
		model = DefaultCohereModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultCohereMaxTokens
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CohereLLMAdapter{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
		logger:    logger,
	}
}

type cohereGenerateRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type cohereGenerateResponse struct {
	Generations []struct {
		Text string `json:"text"`
	} `json:"generations"`
}

// Generate returns the text of the first generation.
func (a *CohereLLMAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	a.logger.Debug("generate_request", "provider", "cohere", "model", a.model, "max_tokens", a.maxTokens)

	var genResp cohereGenerateResponse
	if err := httpjson.Post(ctx, a.client, a.baseURL+"/v1/generate", a.apiKey, cohereGenerateRequest{
		Model:     a.model,
		Prompt:    prompt,
		MaxTokens: a.maxTokens,
	}, &genResp); err != nil {
		return "", fmt.Errorf("cohere: %w", err)
	}
	if len(genResp.Generations) == 0 {
		return "", fmt.Errorf("cohere: response contained no generations")
	}
	return genResp.Generations[0].Text, nil
}
