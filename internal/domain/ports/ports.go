// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions, adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// EmbedBatch embeds all texts in one collaborator round-trip.
	// The result has one embedding per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([]entities.Embedding, error)

	// MaxBatchSize is the most texts one EmbedBatch call accepts.
	// Zero means no limit.
	MaxBatchSize() int
}

// LLMService generates text from a prompt.
type LLMService interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// FragmentIndex holds fragment embeddings and answers nearest-fragment queries.
// It is loaded once and read-only afterwards.
type FragmentIndex interface {
	// Load stores the fragments and their embeddings. It may be called once.
	Load(ctx context.Context, fragments []entities.Fragment, embeddings []entities.Embedding) error

	// Nearest returns the best-scoring fragment for the query embedding.
	// Returns entities.ErrEmptyIndex when nothing is loaded and
	// entities.ErrNoRelevantMatch when a cutoff rejects the best match.
	Nearest(ctx context.Context, query entities.Embedding) (entities.Match, error)

	// Len returns the number of loaded fragments.
	Len(ctx context.Context) (int, error)
}

// SessionStore maps a session id to the previous query of that session.
type SessionStore interface {
	Get(sessionID string) (string, bool)
	Put(sessionID, query string)
	IsFirstTurn(sessionID string) bool

	// Exchange stores query and returns what was stored before, atomically.
	Exchange(sessionID, query string) (previous string, found bool)

	Len() int
}

// DocumentLoader fetches the source document.
type DocumentLoader interface {
	// Load returns the document. On failure it returns an error wrapping
	// entities.ErrDocumentFetch.
	Load(ctx context.Context, source string) (*entities.Document, error)
}

// FileWatcher monitors a file for changes.
type FileWatcher interface {
	// Watch starts monitoring the path and emits events.
	Watch(ctx context.Context, path string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
