// Package vectordb provides fragment index adapters.
// All of them implement ports.FragmentIndex with a pluggable Metric.
package vectordb

import (
	"context"
	"fmt"
	"sync"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// MemoryIndex is a slice-backed fragment index with a linear scan.
// After Load it is never written again, so Nearest takes no lock.
type MemoryIndex struct {
	opts Options

	once       sync.Once
	fragments  []entities.Fragment
	embeddings []entities.Embedding
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex(opts Options) *MemoryIndex {
	return &MemoryIndex{opts: opts}
}

// Load stores the fragments with their embeddings. Only the first call succeeds.
func (s *MemoryIndex) Load(ctx context.Context, fragments []entities.Fragment, embeddings []entities.Embedding) error {
	if len(fragments) != len(embeddings) {
		return fmt.Errorf("%d fragments and %d embeddings: %w", len(fragments), len(embeddings), entities.ErrInvalidInput)
	}

	err := entities.ErrIndexSealed
	s.once.Do(func() {
		s.fragments = append([]entities.Fragment(nil), fragments...)
		s.embeddings = append([]entities.Embedding(nil), embeddings...)
		err = nil
	})
	return err
}

// Nearest returns the best fragment under the configured metric; ties go to
// the earliest fragment.
func (s *MemoryIndex) Nearest(ctx context.Context, query entities.Embedding) (entities.Match, error) {
	if len(s.fragments) == 0 {
		return entities.Match{}, entities.ErrEmptyIndex
	}

	m := s.opts.metric()
	idx, score := best(m, query, s.embeddings)
	if s.opts.Cutoff != nil && !m.Passes(score, *s.opts.Cutoff) {
		return entities.Match{}, fmt.Errorf("best %s score %.4f vs cutoff %.4f: %w",
			m.Name(), score, *s.opts.Cutoff, entities.ErrNoRelevantMatch)
	}
	return entities.Match{Fragment: s.fragments[idx], Score: score}, nil
}

// Len returns the number of loaded fragments.
func (s *MemoryIndex) Len(ctx context.Context) (int, error) {
	return len(s.fragments), nil
}

// Close is a no-op.
func (s *MemoryIndex) Close() error { return nil }
