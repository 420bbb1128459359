package annotate

import (
	"context"
	"fmt"
	"sort"

	"github.com/andrei/docscan/internal/domain"
	"github.com/andrei/docscan/internal/logger"
	"github.com/andrei/docscan/internal/nlp"
	"github.com/andrei/docscan/internal/pdfio"
)

// entityLabels is the allow-list of named entity labels worth underlining
// in legal documents.
var entityLabels = map[string]struct{}{
	"PERSON": {},
	"ORG":    {},
	"GPE":    {},
	"LAW":    {},
	"NORP":   {},
}

// Config controls the annotation engine.
type Config struct {
	EntitiesEnabled  bool
	FuzzyMaxDistance int
}

// Engine annotates OCR-ed documents with keyword highlights and entity
// underlines.
type Engine struct {
	cfg      *Config
	index    *Index
	pdf      pdfio.Engine
	provider nlp.Provider
	log      *logger.Logger
}

// NewEngine creates an annotation engine.
// Parameters:
//   - cfg: engine configuration.
//   - index: keyword index shared across documents.
//   - pdf: PDF primitives for positioned text and annotation writing.
//   - provider: linguistic capability for per-page analysis.
//   - log: structured logger.
// Returns:
//   - *Engine: ready-to-use engine.
func NewEngine(cfg *Config, index *Index, pdf pdfio.Engine, provider nlp.Provider, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Engine{cfg: cfg, index: index, pdf: pdf, provider: provider, log: log}
}

// Highlight matches keywords and entities over every page of pdfPath,
// writes the annotated copy to outPath, and returns the per-keyword match
// metadata plus document statistics.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - pdfPath: OCR-ed source document.
//   - outPath: destination for the annotated copy.
//   - keywords: keyword list of the requesting tenant.
//   - hash: hash identifying the keyword list version.
// Returns:
//   - []domain.KeywordMatch: matches with per-page occurrences.
//   - domain.Statistics: page, entity, keyword, word, and character counts.
//   - error: non-nil when text extraction, analysis, or writing fails.
func (e *Engine) Highlight(ctx context.Context, pdfPath, outPath string, keywords []domain.Keyword, hash string) ([]domain.KeywordMatch, domain.Statistics, error) {
	var stats domain.Statistics

	pages, err := e.pdf.Pages(pdfPath)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read positioned text from %s: %w", pdfPath, err)
	}
	stats.NumPages = len(pages)

	ms := e.index.Ensure(ctx, keywords, hash)

	matches := map[string]*domain.KeywordMatch{}
	var marks []pdfio.Mark

	for _, page := range pages {
		texts := make([]string, len(page.Words))
		for i, w := range page.Words {
			texts[i] = w.Text
			stats.NumChars += len(w.Text) + 1
		}
		stats.NumWds += len(texts)
		if len(texts) == 0 {
			continue
		}

		analysis, err := e.provider.Analyze(ctx, texts)
		if err != nil {
			return nil, stats, fmt.Errorf("failed to analyze page %d: %w", page.Number+1, err)
		}

		if ms != nil {
			spans := ResolveOverlaps(ms.matchPage(texts, analysis, e.cfg.FuzzyMaxDistance))
			for _, sp := range spans {
				rect := unionRect(page.Words[sp.Start:sp.End])
				m := matches[sp.Keyword]
				if m == nil {
					m = &domain.KeywordMatch{Keyword: sp.Keyword}
					matches[sp.Keyword] = m
				}
				m.Occs = append(m.Occs, domain.Occurrence{Page: page.Number, Location: rect})
				m.TotalOccs++
				stats.NumKwds++

				kind := pdfio.MarkKeyword
				if sp.Source == SourceSemantic {
					kind = pdfio.MarkSemantic
				}
				for _, w := range page.Words[sp.Start:sp.End] {
					marks = append(marks, pdfio.Mark{Page: page.Number, Rect: w.Rect, Kind: kind})
				}
			}
		}

		if e.cfg.EntitiesEnabled {
			for _, ent := range entitySpans(analysis, len(page.Words)) {
				stats.NumEnts++
				for _, w := range page.Words[ent.Start:ent.End] {
					marks = append(marks, pdfio.Mark{Page: page.Number, Rect: w.Rect, Kind: pdfio.MarkEntity})
				}
			}
		}
	}

	if err := e.pdf.WriteMarks(pdfPath, outPath, marks); err != nil {
		return nil, stats, fmt.Errorf("failed to write annotated copy to %s: %w", outPath, err)
	}

	out := make([]domain.KeywordMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keyword < out[j].Keyword })
	return out, stats, nil
}

// entitySpans filters the analysis entities down to the allow-listed labels
// and clamps them to the page token range. Entities are not competed against
// keyword spans; a token may carry both a highlight and an underline.
func entitySpans(analysis *nlp.Analysis, numTokens int) []Span {
	if analysis == nil {
		return nil
	}
	var spans []Span
	for _, ent := range analysis.Entities {
		if _, ok := entityLabels[ent.Label]; !ok {
			continue
		}
		start, end := ent.Start, ent.End
		if start < 0 {
			start = 0
		}
		if end > numTokens {
			end = numTokens
		}
		if start >= end {
			continue
		}
		spans = append(spans, Span{Start: start, End: end, Source: MatchSource(ent.Label)})
	}
	return spans
}

// unionRect returns the bounding box covering every word in the span.
func unionRect(words []pdfio.Word) domain.Rect {
	if len(words) == 0 {
		return domain.Rect{}
	}
	r := words[0].Rect
	for _, w := range words[1:] {
		if w.Rect.X1 < r.X1 {
			r.X1 = w.Rect.X1
		}
		if w.Rect.Y1 < r.Y1 {
			r.Y1 = w.Rect.Y1
		}
		if w.Rect.X2 > r.X2 {
			r.X2 = w.Rect.X2
		}
		if w.Rect.Y2 > r.Y2 {
			r.Y2 = w.Rect.Y2
		}
	}
	return r
}
