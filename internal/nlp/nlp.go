// Package nlp defines the contract with the external linguistic capability:
// lemmatization, vector embeddings, named entities, and synonyms.
package nlp

import "context"

// Token is one analyzed token.
type Token struct {
	Text   string    `json:"text"`
	Lemma  string    `json:"lemma"`
	Vector []float32 `json:"vector,omitempty"`
}

// Entity is a named-entity span over token indices [Start, End).
type Entity struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

// Analysis is the linguistic annotation of one token sequence.
type Analysis struct {
	Tokens   []Token  `json:"tokens"`
	Entities []Entity `json:"entities"`
}

// Provider is the linguistic capability the annotation engine depends on.
type Provider interface {
	// Analyze annotates a tokenized page: lemmas, vectors, entity spans.
	Analyze(ctx context.Context, tokens []string) (*Analysis, error)
	// Vector returns the embedding for a single term.
	Vector(ctx context.Context, term string) ([]float32, error)
	// Synonyms returns known synonyms for a term, possibly empty.
	Synonyms(ctx context.Context, term string) ([]string, error)
}
