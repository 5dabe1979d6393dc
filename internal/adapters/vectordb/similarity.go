package vectordb

import (
	"fmt"
	"math"
	"strings"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// Metric scores a query embedding against a fragment embedding.
type Metric interface {
	Name() string

	// Score compares two equal-length vectors.
	Score(a, b entities.Embedding) float64

	// Better reports whether score a ranks strictly ahead of score b.
	Better(a, b float64) bool

	// Passes reports whether score satisfies the relevance cutoff.
	Passes(score, cutoff float64) bool
}

// Built-in metrics.
var (
	DotProduct Metric = dotProduct{}
	Cosine     Metric = cosine{}
	Euclidean  Metric = euclidean{}
)

// ParseMetric maps a config name to a Metric. Empty selects DotProduct.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dot", "dot_product":
		return DotProduct, nil
	case "cosine":
		return Cosine, nil
	case "euclidean", "l2":
		return Euclidean, nil
	default:
		return nil, fmt.Errorf("unknown similarity metric %q: %w", name, entities.ErrInvalidInput)
	}
}

// Options configures how an index ranks fragments.
type Options struct {
	Metric Metric   // nil means DotProduct
	Cutoff *float64 // nil means always return the best match
}

func (o Options) metric() Metric {
	if o.Metric == nil {
		return DotProduct
	}
	return o.Metric
}

// best scans embeddings in order and returns the position of the first
// strictly best score. It returns -1 for no embeddings.
func best(m Metric, query entities.Embedding, embeddings []entities.Embedding) (int, float64) {
	idx := -1
	var top float64
	for i, e := range embeddings {
		s := m.Score(query, e)
		if idx == -1 || m.Better(s, top) {
			idx, top = i, s
		}
	}
	return idx, top
}

type dotProduct struct{}

func (dotProduct) Name() string { return "dot" }

func (dotProduct) Score(a, b entities.Embedding) float64 {
	n := min(len(a), len(b))
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func (dotProduct) Better(a, b float64) bool          { return a > b }
func (dotProduct) Passes(score, cutoff float64) bool { return score >= cutoff }

type cosine struct{}

func (cosine) Name() string { return "cosine" }

// Score returns 0 for mismatched or zero vectors.
func (cosine) Score(a, b entities.Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func (cosine) Better(a, b float64) bool          { return a > b }
func (cosine) Passes(score, cutoff float64) bool { return score >= cutoff }

type euclidean struct{}

func (euclidean) Name() string { return "euclidean" }

// Score is the L2 distance; lower is closer. Mismatched lengths are +Inf.
func (euclidean) Score(a, b entities.Embedding) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func (euclidean) Better(a, b float64) bool          { return a < b }
func (euclidean) Passes(score, cutoff float64) bool { return score <= cutoff }
