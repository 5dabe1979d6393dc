package entities

import "errors"

// Domain errors. Match them with errors.Is; adapters wrap them with context.
var (
	// ErrDocumentFetch indicates the startup document retrieval failed.
	// The service keeps running with MissingDocumentContent.
	ErrDocumentFetch = errors.New("document fetch failed")

	// ErrEmptyIndex indicates retrieval against zero fragments.
	ErrEmptyIndex = errors.New("fragment index is empty")

	// ErrNoRelevantMatch indicates the best fragment did not pass the relevance cutoff.
	ErrNoRelevantMatch = errors.New("no fragment passed the relevance cutoff")

	// ErrEmbedding indicates the embedding collaborator failed.
	ErrEmbedding = errors.New("embedding failed")

	// ErrGeneration indicates the generation collaborator failed.
	ErrGeneration = errors.New("generation failed")

	// ErrMissingInput indicates a request without a message.
	ErrMissingInput = errors.New("no message received")

	// ErrIndexSealed indicates a second load of a fragment index.
	ErrIndexSealed = errors.New("fragment index already loaded")

	// ErrInvalidInput indicates malformed arguments.
	ErrInvalidInput = errors.New("invalid input")
)
