// Package entities contains core business entities.
// These are pure domain objects with no external dependencies.
package entities

import "time"

// MissingDocumentContent replaces the document text when the startup fetch fails.
const MissingDocumentContent = "Error: Document not found."

// NoRelevantInformation is returned when retrieval finds nothing to answer from.
const NoRelevantInformation = "No relevant information found."

// Document is the single source document, fetched once at startup.
type Document struct {
	ID        string
	Name      string
	Source    string // URL or path it was loaded from
	Content   string
	FetchedAt time.Time
}

// Fragment is a contiguous slice of the document used as a retrieval unit.
// Its identity is its position in the document.
type Fragment struct {
	Index int
	Text  string
}

// Embedding is the vector representation of a fragment or a query.
type Embedding []float32

// Match is the fragment chosen for a query embedding along with its score.
type Match struct {
	Fragment Fragment
	Score    float64
}

// TurnKind tells how a query relates to the session history.
type TurnKind int

const (
	TurnStateless TurnKind = iota // no session id supplied
	TurnInitial                   // first query seen for the session
	TurnFollowUp                  // session already had a stored query
)

func (k TurnKind) String() string {
	switch k {
	case TurnInitial:
		return "initial"
	case TurnFollowUp:
		return "follow-up"
	default:
		return "stateless"
	}
}

// Retrieval is what the orchestrator hands to the prompt builder.
type Retrieval struct {
	Fragment Fragment
	Score    float64
	Question string // combined question (may include the previous one)
	Turn     TurnKind
}

// ChatRequest is one incoming question.
type ChatRequest struct {
	Message    string
	SessionID  string
	HasSession bool
}

// ChatResponse is the answer text returned to the caller.
type ChatResponse struct {
	Response string
	Turn     TurnKind
}
