package vectordb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// QdrantConfig contains connection details for a Qdrant collection.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// QdrantIndex is a minimal REST client to an external Qdrant collection.
// The collection is recreated on Load. Ties are resolved in the order
// Qdrant returns them.
type QdrantIndex struct {
	url        string
	apiKey     string
	collection string
	opts       Options
	client     *http.Client

	mu     sync.RWMutex
	sealed bool
	count  int
}

// NewQdrantIndex creates the client. No request is made until Load.
func NewQdrantIndex(cfg QdrantConfig, opts Options) *QdrantIndex {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if cfg.URL == "" {
		cfg.URL = "http://localhost:6333"
	}
	if cfg.Collection == "" {
		cfg.Collection = "docqa"
	}
	return &QdrantIndex{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		opts:       opts,
		client:     &http.Client{Timeout: timeout},
	}
}

func qdrantDistance(m Metric) string {
	switch m.Name() {
	case "cosine":
		return "Cosine"
	case "euclidean":
		return "Euclid"
	default:
		return "Dot"
	}
}

// Load drops and recreates the collection, then upserts one point per fragment.
func (s *QdrantIndex) Load(ctx context.Context, fragments []entities.Fragment, embeddings []entities.Embedding) error {
	if len(fragments) != len(embeddings) {
		return fmt.Errorf("%d fragments and %d embeddings: %w", len(fragments), len(embeddings), entities.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return entities.ErrIndexSealed
	}

	if len(fragments) > 0 {
		collectionURL := fmt.Sprintf("%s/collections/%s", s.url, s.collection)
		// a missing collection answers 404, which is fine here
		_ = s.do(ctx, http.MethodDelete, collectionURL, nil, nil)

		create := map[string]any{
			"vectors": map[string]any{
				"size":     len(embeddings[0]),
				"distance": qdrantDistance(s.opts.metric()),
			},
		}
		if err := s.do(ctx, http.MethodPut, collectionURL, create, nil); err != nil {
			return fmt.Errorf("creating collection: %w", err)
		}

		points := make([]map[string]any, len(fragments))
		for i, f := range fragments {
			points[i] = map[string]any{
				"id":      f.Index,
				"vector":  embeddings[i],
				"payload": map[string]any{"position": f.Index, "text": f.Text},
			}
		}
		if err := s.do(ctx, http.MethodPut, collectionURL+"/points?wait=true", map[string]any{"points": points}, nil); err != nil {
			return fmt.Errorf("upserting points: %w", err)
		}
	}

	s.sealed = true
	s.count = len(fragments)
	return nil
}

// Nearest asks Qdrant for the single best point, passing the cutoff as
// score_threshold.
func (s *QdrantIndex) Nearest(ctx context.Context, query entities.Embedding) (entities.Match, error) {
	s.mu.RLock()
	count := s.count
	s.mu.RUnlock()
	if count == 0 {
		return entities.Match{}, entities.ErrEmptyIndex
	}

	req := map[string]any{
		"vector":       query,
		"limit":        1,
		"with_payload": true,
	}
	if s.opts.Cutoff != nil {
		req["score_threshold"] = *s.opts.Cutoff
	}

	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				Position int    `json:"position"`
				Text     string `json:"text"`
			} `json:"payload"`
		} `json:"result"`
	}
	searchURL := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.do(ctx, http.MethodPost, searchURL, req, &resp); err != nil {
		return entities.Match{}, fmt.Errorf("searching points: %w", err)
	}
	if len(resp.Result) == 0 {
		return entities.Match{}, entities.ErrNoRelevantMatch
	}

	top := resp.Result[0]
	m := s.opts.metric()
	if s.opts.Cutoff != nil && !m.Passes(top.Score, *s.opts.Cutoff) {
		return entities.Match{}, fmt.Errorf("best %s score %.4f vs cutoff %.4f: %w",
			m.Name(), top.Score, *s.opts.Cutoff, entities.ErrNoRelevantMatch)
	}
	return entities.Match{
		Fragment: entities.Fragment{Index: top.Payload.Position, Text: top.Payload.Text},
		Score:    top.Score,
	}, nil
}

// Len returns the number of points loaded by this process.
func (s *QdrantIndex) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count, nil
}

// Close is a no-op; the collection outlives the process.
func (s *QdrantIndex) Close() error { return nil }

func (s *QdrantIndex) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling qdrant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s returned status %d", method, url, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
