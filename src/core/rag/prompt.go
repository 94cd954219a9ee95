package rag

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ContextSeparator joins retrieved chunk texts inside the context
// placeholder.
const ContextSeparator = "\n\n"

const (
	placeholderContext  = "{context}"
	placeholderQuestion = "{question}"
)

// DefaultTemplate is the grounded question answering template used when no
// custom template is configured.
const DefaultTemplate = `Answer the question using only the provided context. If the context does not contain the answer, say so.

Context:
{context}

Question: {question}

Answer:`

// Prompt is a rendered generation prompt.
type Prompt struct {
	TemplateID string `json:"template_id"`
	Text       string `json:"text"`
}

// Assembler fills a prompt template with retrieved context and a question.
// The template must contain the {context} and {question} placeholders.
//
// When a context budget is set, the lowest-scoring chunks are dropped first
// until the joined context fits; a chunk is never cut mid-text, so the
// single best chunk is kept even if it alone exceeds the budget.
type Assembler struct {
	id              string
	template        string
	maxContextRunes int
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithMaxContextRunes bounds the rendered context to n runes, including
// separators.
func WithMaxContextRunes(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.maxContextRunes = n
		}
	}
}

// NewAssembler validates the template and returns an Assembler for it.
func NewAssembler(template string, opts ...AssemblerOption) (*Assembler, error) {
	for _, placeholder := range []string{placeholderContext, placeholderQuestion} {
		if !strings.Contains(template, placeholder) {
			return nil, fmt.Errorf("%w: %s", ErrMissingPlaceholder, placeholder)
		}
	}

	a := &Assembler{
		id:       uuid.New().String(),
		template: template,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Assemble joins the retrieved chunk texts in retrieval order and
// substitutes them, with the question, into the template.
func (a *Assembler) Assemble(retrieval []ScoredChunk, question string) (Prompt, error) {
	kept := retrieval
	if a.maxContextRunes > 0 {
		kept = a.fitToBudget(retrieval)
	}

	texts := make([]string, len(kept))
	for i, sc := range kept {
		texts[i] = sc.Chunk.Text
	}

	filled := strings.NewReplacer(
		placeholderContext, strings.Join(texts, ContextSeparator),
		placeholderQuestion, question,
	).Replace(a.template)

	return Prompt{TemplateID: a.id, Text: filled}, nil
}

// fitToBudget drops chunks from the tail, which the Retriever contract
// guarantees are the lowest-scoring, until the joined context fits.
func (a *Assembler) fitToBudget(retrieval []ScoredChunk) []ScoredChunk {
	kept := retrieval
	for len(kept) > 1 && contextRunes(kept) > a.maxContextRunes {
		kept = kept[:len(kept)-1]
	}
	return kept
}

func contextRunes(chunks []ScoredChunk) int {
	total := 0
	for i, sc := range chunks {
		if i > 0 {
			total += len([]rune(ContextSeparator))
		}
		total += len([]rune(sc.Chunk.Text))
	}
	return total
}
