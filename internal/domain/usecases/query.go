// Package usecases - query.go handles retrieval, session merging and generation.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

// QueryUseCase answers questions against the fragment index.
type QueryUseCase struct {
	embedder ports.EmbeddingService
	index    ports.FragmentIndex
	sessions ports.SessionStore
	llm      ports.LLMService
	prompts  *PromptBuilder
	logger   *slog.Logger
}

// NewQueryUseCase creates a QueryUseCase with injected dependencies.
func NewQueryUseCase(
	embedder ports.EmbeddingService,
	index ports.FragmentIndex,
	sessions ports.SessionStore,
	llm ports.LLMService,
	prompts *PromptBuilder,
	logger *slog.Logger,
) *QueryUseCase {
	if prompts == nil {
		prompts = NewPromptBuilder("", 0)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &QueryUseCase{
		embedder: embedder,
		index:    index,
		sessions: sessions,
		llm:      llm,
		prompts:  prompts,
		logger:   logger,
	}
}

// Retrieve finds the nearest fragment and builds the combined question.
// Without a session the store is neither read nor written. The session is
// only updated once a fragment was found.
func (uc *QueryUseCase) Retrieve(ctx context.Context, query, sessionID string, hasSession bool) (entities.Retrieval, error) {
	// 1. Embed the query
	embeddings, err := uc.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return entities.Retrieval{}, fmt.Errorf("embedding query: %w", err)
	}
	if len(embeddings) != 1 {
		return entities.Retrieval{}, fmt.Errorf("embedding query: got %d embeddings: %w", len(embeddings), entities.ErrEmbedding)
	}

	// 2. Nearest fragment
	match, err := uc.index.Nearest(ctx, embeddings[0])
	if err != nil {
		return entities.Retrieval{}, err
	}

	// 3+4. Turn kind and session bookkeeping
	ret := entities.Retrieval{
		Fragment: match.Fragment,
		Score:    match.Score,
		Question: query,
		Turn:     entities.TurnStateless,
	}
	if hasSession && uc.sessions != nil {
		previous, found := uc.sessions.Exchange(sessionID, query)
		if found {
			ret.Turn = entities.TurnFollowUp
			ret.Question = FollowUpQuestion(previous, query)
		} else {
			ret.Turn = entities.TurnInitial
		}
	}
	return ret, nil
}

// Answer runs retrieval, prompt building and generation. Collaborator
// failures become response text; only an absent or empty message is
// returned as an error. A whitespace-only message is answered.
func (uc *QueryUseCase) Answer(ctx context.Context, req entities.ChatRequest) (*entities.ChatResponse, error) {
	query := req.Message
	if query == "" {
		return nil, entities.ErrMissingInput
	}

	ret, err := uc.Retrieve(ctx, query, req.SessionID, req.HasSession)
	switch {
	case errors.Is(err, entities.ErrEmptyIndex), errors.Is(err, entities.ErrNoRelevantMatch):
		uc.logger.Info("no_relevant_fragment", "reason", err.Error())
		return &entities.ChatResponse{Response: entities.NoRelevantInformation}, nil
	case err != nil:
		uc.logger.Error("retrieval_failed", "error", err)
		return &entities.ChatResponse{Response: "Error: could not process the question: " + err.Error()}, nil
	}

	prompt := uc.prompts.Build(ret.Fragment.Text, ret.Question)
	answer, err := uc.llm.Generate(ctx, prompt)
	if err != nil {
		err = fmt.Errorf("%w: %v", entities.ErrGeneration, err)
		uc.logger.Error("generation_failed", "error", err, "fragment", ret.Fragment.Index)
		return &entities.ChatResponse{Response: "Error: " + err.Error(), Turn: ret.Turn}, nil
	}

	uc.logger.Debug("answered",
		"fragment", ret.Fragment.Index,
		"score", ret.Score,
		"turn", ret.Turn.String(),
	)
	return &entities.ChatResponse{Response: strings.TrimSpace(answer), Turn: ret.Turn}, nil
}

// FollowUpQuestion merges the previous and the current question.
func FollowUpQuestion(previous, current string) string {
	return "Previous question: " + previous + "\nFollow-up question: " + current
}
