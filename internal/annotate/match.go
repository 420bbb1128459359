package annotate

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/andrei/docscan/internal/nlp"
	"github.com/andrei/docscan/internal/textnorm"
)

// MatchSource identifies which matcher produced a span.
type MatchSource string

const (
	SourceExact    MatchSource = "exact"
	SourceLemma    MatchSource = "lemma"
	SourceVariant  MatchSource = "variant"
	SourceSemantic MatchSource = "semantic"
)

// Span is a keyword occurrence over a half-open token range [Start, End).
type Span struct {
	Start   int
	End     int
	Keyword string
	Source  MatchSource
}

// Len returns the span length in tokens.
func (s Span) Len() int { return s.End - s.Start }

// overlaps reports whether two spans claim a common token.
func (s Span) overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// matchPage runs every matcher of ms over one tokenized page and returns the
// raw, unresolved span list. tokens and analysis are index-aligned.
func (ms *matcherSet) matchPage(tokens []string, analysis *nlp.Analysis, fuzzyMax int) []Span {
	lowered := make([]string, len(tokens))
	for i, t := range tokens {
		lowered[i] = strings.ToLower(t)
	}
	lemmas := make([]string, len(tokens))
	if analysis != nil {
		for i := range analysis.Tokens {
			if i < len(lemmas) {
				lemmas[i] = strings.ToLower(analysis.Tokens[i].Lemma)
			}
		}
	}

	var spans []Span
	spans = append(spans, ms.matchExact(lowered)...)
	spans = append(spans, ms.matchLemma(lemmas)...)
	spans = append(spans, ms.matchVariant(lowered, fuzzyMax)...)
	if ms.semantic != nil && analysis != nil {
		spans = append(spans, ms.matchSemantic(analysis)...)
	}
	return spans
}

// matchExact finds keywords whose raw token sequence appears verbatim.
func (ms *matcherSet) matchExact(lowered []string) []Span {
	var spans []Span
	for i, tok := range lowered {
		for _, idx := range ms.byFirst[tok] {
			e := ms.entries[idx]
			if i+len(e.tokens) > len(lowered) {
				continue
			}
			ok := true
			for j, want := range e.tokens {
				if lowered[i+j] != want {
					ok = false
					break
				}
			}
			if ok {
				spans = append(spans, Span{Start: i, End: i + len(e.tokens), Keyword: e.name, Source: SourceExact})
			}
		}
	}
	return spans
}

// matchLemma finds keywords whose lemma sequence matches the page lemmas.
func (ms *matcherSet) matchLemma(lemmas []string) []Span {
	var spans []Span
	for i, lem := range lemmas {
		if lem == "" {
			continue
		}
		for _, idx := range ms.byLemma[lem] {
			e := ms.entries[idx]
			if i+len(e.lemmas) > len(lemmas) {
				continue
			}
			ok := true
			for j, want := range e.lemmas {
				if want == "" || lemmas[i+j] != want {
					ok = false
					break
				}
			}
			if ok {
				spans = append(spans, Span{Start: i, End: i + len(e.lemmas), Keyword: e.name, Source: SourceLemma})
			}
		}
	}
	return spans
}

// matchVariant accepts a span when each page token matches one of the
// precomputed variant forms of the corresponding keyword token, either
// exactly or within the edit-distance budget.
func (ms *matcherSet) matchVariant(lowered []string, fuzzyMax int) []Span {
	norm := make([]string, len(lowered))
	for i, t := range lowered {
		norm[i] = textnorm.Normalize(t)
	}

	var spans []Span
	for idx := range ms.entries {
		e := &ms.entries[idx]
		for i := 0; i+len(e.variants) <= len(lowered); i++ {
			ok := true
			for j, forms := range e.variants {
				if !tokenMatchesAny(lowered[i+j], norm[i+j], forms, fuzzyMax) {
					ok = false
					break
				}
			}
			if ok {
				spans = append(spans, Span{Start: i, End: i + len(e.variants), Keyword: e.name, Source: SourceVariant})
			}
		}
	}
	return spans
}

func tokenMatchesAny(raw, normalized string, forms []string, fuzzyMax int) bool {
	for _, f := range forms {
		if raw == f || normalized == f {
			return true
		}
		if fuzzyMax > 0 && len(raw) > fuzzyMax+1 &&
			levenshtein.Distance(raw, f, nil) <= fuzzyMax {
			return true
		}
	}
	return false
}

// matchSemantic embeds sliding token windows and matches each against the
// nearest keyword vector.
func (ms *matcherSet) matchSemantic(analysis *nlp.Analysis) []Span {
	tokens := analysis.Tokens
	var spans []Span
	for size := semanticWindowMin; size <= semanticWindowMax; size++ {
		for i := 0; i+size <= len(tokens); i++ {
			vecs := make([][]float32, 0, size)
			for j := i; j < i+size; j++ {
				vecs = append(vecs, tokens[j].Vector)
			}
			mean := meanVector(vecs)
			if mean == nil {
				continue
			}
			if idx, ok := ms.semantic.Search(mean); ok {
				spans = append(spans, Span{Start: i, End: i + size, Keyword: ms.entries[idx].name, Source: SourceSemantic})
			}
		}
	}
	return spans
}

// ResolveOverlaps keeps the longest non-conflicting spans. Candidates are
// ordered by length descending then start ascending; a span is kept only if
// it shares no token with an already-kept span. The result is sorted by
// start position.
// Parameters:
//   - spans: raw span candidates, possibly overlapping.
// Returns:
//   - []Span: non-overlapping spans in page order.
func ResolveOverlaps(spans []Span) []Span {
	if len(spans) <= 1 {
		return spans
	}
	ordered := make([]Span, len(spans))
	copy(ordered, spans)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Len() != ordered[j].Len() {
			return ordered[i].Len() > ordered[j].Len()
		}
		return ordered[i].Start < ordered[j].Start
	})

	var kept []Span
	for _, cand := range ordered {
		conflict := false
		for _, k := range kept {
			if cand.overlaps(k) {
				conflict = true
				break
			}
		}
		if !conflict {
			kept = append(kept, cand)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}
