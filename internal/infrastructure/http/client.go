package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// Client calls a running server's /chat endpoint. It satisfies the same
// Answer contract as the in-process orchestrator.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Answer posts the question. A 400 maps back to entities.ErrMissingInput.
func (c *Client) Answer(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error) {
	body := chatRequest{Message: req.Message}
	if req.HasSession {
		body.SessionID = req.SessionID
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling server: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, entities.ErrMissingInput
	default:
		var e errorResponse
		json.NewDecoder(resp.Body).Decode(&e)
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, e.Error)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &entities.ChatResponse{Response: out.Response}, nil
}
