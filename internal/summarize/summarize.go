// Package summarize produces extractive summaries, used to shrink oversized
// result payloads down to their most relevant sentences.
package summarize

import (
	"strings"

	textrank "github.com/DavidBelicza/TextRank/v2"
)

// Summarizer ranks sentences by relation weight and keeps the top ones.
type Summarizer struct {
	sentences int
}

// New creates a summarizer.
// Parameters:
//   - sentences: maximum number of sentences in a summary.
// Returns:
//   - *Summarizer: ready-to-use summarizer.
func New(sentences int) *Summarizer {
	if sentences <= 0 {
		sentences = 10
	}
	return &Summarizer{sentences: sentences}
}

// Summarize returns the highest-ranked sentences of text joined with spaces,
// in rank order. Short inputs come back unchanged.
// Parameters:
//   - text: cleaned document text.
// Returns:
//   - string: extractive summary, at most the configured sentence count.
func (s *Summarizer) Summarize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	tr := textrank.NewTextRank()
	tr.Populate(text, textrank.NewDefaultLanguage(), textrank.NewDefaultRule())
	tr.Ranking(textrank.NewDefaultAlgorithm())

	ranked := textrank.FindSentencesByRelationWeight(tr, s.sentences)
	if len(ranked) == 0 {
		return text
	}

	parts := make([]string, 0, len(ranked))
	for _, sent := range ranked {
		v := strings.TrimSpace(sent.Value)
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return text
	}
	return strings.Join(parts, " ")
}
