// Package llm provides text generation adapters implementing ports.LLMService.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/adapters/httpjson"
)

// OllamaLLMAdapter implements ports.LLMService using the Ollama API.
type OllamaLLMAdapter struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

// NewOllamaLLMAdapter creates a new Ollama LLM adapter.
func NewOllamaLLMAdapter(baseURL, model string, logger *slog.Logger) *OllamaLLMAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OllamaLLMAdapter{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 300 * time.Second, // local models can be slow on first load
		},
		logger: logger,
	}
}

// ollamaGenerateRequest is the Ollama generate API request.
type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// ollamaGenerateResponse is the Ollama generate API response.
type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate sends the prompt and returns the whole completion.
func (a *OllamaLLMAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	a.logger.Debug("generate_request", "provider", "ollama", "model", a.model, "prompt_bytes", len(prompt))

	var genResp ollamaGenerateResponse
	if err := httpjson.Post(ctx, a.client, a.baseURL+"/api/generate", "", ollamaGenerateRequest{
		Model:  a.model,
		Prompt: prompt,
		Stream: false,
	}, &genResp); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return genResp.Response, nil
}
