package vectordb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

type fakeQdrant struct {
	mu       sync.Mutex
	requests []string
	created  map[string]any
	points   []map[string]any
	search   map[string]any
	result   []map[string]any
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	if r.Header.Get("api-key") != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.Method == http.MethodDelete && r.URL.Path == "/collections/docs":
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut && r.URL.Path == "/collections/docs":
		json.NewDecoder(r.Body).Decode(&f.created)
		json.NewEncoder(w).Encode(map[string]any{"result": true})
	case r.Method == http.MethodPut && r.URL.Path == "/collections/docs/points":
		var body struct {
			Points []map[string]any `json:"points"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.points = body.Points
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"status": "completed"}})
	case r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/search":
		json.NewDecoder(r.Body).Decode(&f.search)
		json.NewEncoder(w).Encode(map[string]any{"result": f.result})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestQdrant(t *testing.T, fake *fakeQdrant, opts Options) *QdrantIndex {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewQdrantIndex(QdrantConfig{URL: srv.URL + "/", APIKey: "secret", Collection: "docs"}, opts)
}

func TestQdrantIndex_LoadAndNearest(t *testing.T) {
	ctx := context.Background()
	fake := &fakeQdrant{result: []map[string]any{
		{"id": 1, "score": 0.87, "payload": map[string]any{"position": 1, "text": "It charges no fees."}},
	}}
	idx := newTestQdrant(t, fake, Options{Metric: Cosine})
	fragments, embeddings := testFragments()

	require.NoError(t, idx.Load(ctx, fragments, embeddings))
	vectors := fake.created["vectors"].(map[string]any)
	assert.Equal(t, "Cosine", vectors["distance"])
	assert.EqualValues(t, 3, vectors["size"])
	require.Len(t, fake.points, 3)
	assert.EqualValues(t, 2, fake.points[2]["id"])

	m, err := idx.Nearest(ctx, entities.Embedding{0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, entities.Fragment{Index: 1, Text: "It charges no fees."}, m.Fragment)
	assert.InDelta(t, 0.87, m.Score, 1e-9)
	assert.EqualValues(t, 1, fake.search["limit"])
	assert.NotContains(t, fake.search, "score_threshold")

	n, _ := idx.Len(ctx)
	assert.Equal(t, 3, n)
	assert.ErrorIs(t, idx.Load(ctx, fragments, embeddings), entities.ErrIndexSealed)
}

func TestQdrantIndex_Threshold(t *testing.T) {
	ctx := context.Background()
	fake := &fakeQdrant{}
	idx := newTestQdrant(t, fake, Options{Metric: Euclidean, Cutoff: floatPtr(0.25)})
	fragments, embeddings := testFragments()
	require.NoError(t, idx.Load(ctx, fragments, embeddings))
	assert.Equal(t, "Euclid", fake.created["vectors"].(map[string]any)["distance"])

	_, err := idx.Nearest(ctx, entities.Embedding{9, 9, 9})
	assert.ErrorIs(t, err, entities.ErrNoRelevantMatch)
	assert.InDelta(t, 0.25, fake.search["score_threshold"], 1e-9)
}

func TestQdrantIndex_EmptyDocument(t *testing.T) {
	ctx := context.Background()
	fake := &fakeQdrant{}
	idx := newTestQdrant(t, fake, Options{})

	require.NoError(t, idx.Load(ctx, nil, nil))
	_, err := idx.Nearest(ctx, entities.Embedding{1})
	assert.ErrorIs(t, err, entities.ErrEmptyIndex)
	assert.Empty(t, fake.requests)
}

func TestQdrantIndex_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	idx := NewQdrantIndex(QdrantConfig{URL: srv.URL}, Options{})
	fragments, embeddings := testFragments()
	err := idx.Load(context.Background(), fragments, embeddings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating collection")
}
