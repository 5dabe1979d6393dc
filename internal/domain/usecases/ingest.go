// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// DefaultChunkSize is the fragment length in characters.
const DefaultChunkSize = 500

// IngestUseCase turns the document into a loaded fragment index.
type IngestUseCase struct {
	embedder  ports.EmbeddingService
	index     ports.FragmentIndex
	chunkSize int
	logger    *slog.Logger
}

// NewIngestUseCase creates an IngestUseCase with injected dependencies.
func NewIngestUseCase(
	embedder ports.EmbeddingService,
	index ports.FragmentIndex,
	chunkSize int,
	logger *slog.Logger,
) *IngestUseCase {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &IngestUseCase{
		embedder:  embedder,
		index:     index,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Ingest chunks the document, embeds the fragments in as few calls as the
// embedder's batch limit allows and loads the index. It returns the number
// of fragments indexed.
func (uc *IngestUseCase) Ingest(ctx context.Context, doc *entities.Document) (int, error) {
	fragments := Chunk(doc.Content, uc.chunkSize)
	if len(fragments) == 0 {
		uc.logger.Warn("document_empty", "source", doc.Source)
		return 0, uc.index.Load(ctx, nil, nil)
	}

	texts := make([]string, len(fragments))
	for i, f := range fragments {
		texts[i] = f.Text
	}

	embeddings, err := uc.embedAll(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding fragments: %w", err)
	}
	if len(embeddings) != len(fragments) {
		return 0, fmt.Errorf("embedding fragments: got %d embeddings for %d fragments: %w",
			len(embeddings), len(fragments), entities.ErrEmbedding)
	}

	if err := uc.index.Load(ctx, fragments, embeddings); err != nil {
		return 0, fmt.Errorf("loading index: %w", err)
	}

	uc.logger.Info("index_built",
		"source", doc.Source,
		"fragments", len(fragments),
		"chunk_size", uc.chunkSize,
	)
	return len(fragments), nil
}

// embedAll embeds texts in consecutive batches of at most MaxBatchSize and
// joins the results in input order.
func (uc *IngestUseCase) embedAll(ctx context.Context, texts []string) ([]entities.Embedding, error) {
	size := uc.embedder.MaxBatchSize()
	if size <= 0 || len(texts) <= size {
		return uc.embedder.EmbedBatch(ctx, texts)
	}

	embeddings := make([]entities.Embedding, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		batch, err := uc.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("batch %d-%d: got %d embeddings: %w",
				start, end, len(batch), entities.ErrEmbedding)
		}
		embeddings = append(embeddings, batch...)
	}
	uc.logger.Debug("fragments_embedded", "texts", len(texts), "batch_size", size)
	return embeddings, nil
}

// Chunk splits text into consecutive windows of size characters (code
// points). The last window holds the remainder. Empty text yields no
// fragments. The text is not trimmed or normalised, so concatenating the
// fragments reproduces it exactly.
func Chunk(text string, size int) []entities.Fragment {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if text == "" {
		return nil
	}

	var fragments []entities.Fragment
	start, count := 0, 0
	for i := range text {
		if count == size {
			fragments = append(fragments, entities.Fragment{Index: len(fragments), Text: text[start:i]})
			start, count = i, 0
		}
		count++
	}
	fragments = append(fragments, entities.Fragment{Index: len(fragments), Text: text[start:]})
	return fragments
}
