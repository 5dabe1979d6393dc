package usecases

import "strings"

// DefaultPersona is the assistant name used in the prompt.
const DefaultPersona = "DocBot"

// DeclineAnswer is what the model is told to reply when the context is not enough.
const DeclineAnswer = "Sorry, I don't know."

// PromptBuilder fills the fixed instruction-and-context template.
type PromptBuilder struct {
	persona         string
	maxContextChars int // 0 keeps the whole fragment
}

// NewPromptBuilder creates a builder. maxContextChars <= 0 disables truncation.
func NewPromptBuilder(persona string, maxContextChars int) *PromptBuilder {
	if persona == "" {
		persona = DefaultPersona
	}
	if maxContextChars < 0 {
		maxContextChars = 0
	}
	return &PromptBuilder{persona: persona, maxContextChars: maxContextChars}
}

// Build returns the prompt for the given fragment text and combined question.
func (b *PromptBuilder) Build(fragment, question string) string {
	var sb strings.Builder
	sb.WriteString("You are ")
	sb.WriteString(b.persona)
	sb.WriteString(", an assistant that answers questions about a single document.\n")
	sb.WriteString("Answer strictly from the context below. If the context does not contain the answer, reply exactly: \"")
	sb.WriteString(DeclineAnswer)
	sb.WriteString("\"\n\n")
	sb.WriteString("Context: ")
	sb.WriteString(b.truncate(fragment))
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\nAnswer:")
	return sb.String()
}

func (b *PromptBuilder) truncate(s string) string {
	if b.maxContextChars == 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == b.maxContextChars {
			return s[:i]
		}
		count++
	}
	return s
}
