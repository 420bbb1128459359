// Package annotate builds keyword match structures, matches them against
// tokenized pages, resolves overlapping spans, and emits highlight metadata.
package annotate

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/andrei/docscan/internal/domain"
	"github.com/andrei/docscan/internal/logger"
	"github.com/andrei/docscan/internal/nlp"
	"github.com/andrei/docscan/internal/quality"
	"github.com/andrei/docscan/internal/textnorm"
)

// keywordEntry is one keyword compiled into matchable form.
type keywordEntry struct {
	name     string
	tokens   []string   // raw lower-cased tokens
	lemmas   []string   // lemma per token
	variants [][]string // accepted variant forms per token
	vector   []float32  // mean token vector, semantic matching only
}

// matcherSet is an immutable compiled keyword list. Readers always observe
// a complete set; rebuilds publish a fresh one by pointer swap.
type matcherSet struct {
	hash     string
	entries  []keywordEntry
	byFirst  map[string][]int // raw first token -> entry indices
	byLemma  map[string][]int // first lemma -> entry indices
	semantic *semanticSearcher
}

// IndexConfig controls matcher construction.
type IndexConfig struct {
	SemanticEnabled   bool
	SemanticThreshold float64
	FuzzyMaxDistance  int
}

// Index is the process-global keyword matcher cache, keyed by the keywords
// hash of the document driving the rebuild decision.
type Index struct {
	cfg      *IndexConfig
	provider nlp.Provider
	log      *logger.Logger

	current  atomic.Pointer[matcherSet]
	rebuilds atomic.Int64
}

// NewIndex creates an empty keyword index.
// Parameters:
//   - cfg: matcher configuration.
//   - provider: linguistic capability for lemmas, vectors, and synonyms.
//   - log: structured logger.
// Returns:
//   - *Index: initialized index; built lazily on first use.
func NewIndex(cfg *IndexConfig, provider nlp.Provider, log *logger.Logger) *Index {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Index{cfg: cfg, provider: provider, log: log}
}

// Rebuilds returns how many times the matcher set has been rebuilt.
// Parameters: none.
// Returns:
//   - int64: rebuild count since process start.
func (ix *Index) Rebuilds() int64 {
	return ix.rebuilds.Load()
}

// Ensure returns a matcher set valid for hash, rebuilding if the cached set
// was built from a different keyword list. The rebuild is all-or-nothing: on
// failure the stale set is retained and returned so matching continues on
// the old keyword list.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - keywords: current keyword list.
//   - hash: hash identifying the keyword list version.
// Returns:
//   - *matcherSet: matcher set to match with; possibly stale, possibly nil
//     when no set was ever built.
func (ix *Index) Ensure(ctx context.Context, keywords []domain.Keyword, hash string) *matcherSet {
	cur := ix.current.Load()
	if cur != nil && cur.hash == hash {
		return cur
	}

	ix.log.WithFields(logger.Fields{
		"keywords": len(keywords),
		"hash":     hash,
	}).Info("Rebuilding keyword index")

	next, err := ix.build(ctx, keywords, hash)
	if err != nil {
		ix.log.WithError(err).Error("Keyword index rebuild failed, keeping stale index")
		return cur
	}

	ix.rebuilds.Add(1)
	ix.current.Store(next)
	return next
}

// build compiles the keyword list fully off to the side.
func (ix *Index) build(ctx context.Context, keywords []domain.Keyword, hash string) (*matcherSet, error) {
	ms := &matcherSet{
		hash:    hash,
		byFirst: make(map[string][]int),
		byLemma: make(map[string][]int),
	}

	for _, kw := range keywords {
		tokens := quality.Tokenize(strings.ToLower(kw.Name))
		if len(tokens) == 0 {
			continue
		}

		entry := keywordEntry{name: kw.Name, tokens: tokens}

		analysis, err := ix.provider.Analyze(ctx, tokens)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze keyword %q: %w", kw.Name, err)
		}
		for _, t := range analysis.Tokens {
			entry.lemmas = append(entry.lemmas, strings.ToLower(t.Lemma))
		}

		variants, err := ix.variantsFor(ctx, tokens, entry.lemmas)
		if err != nil {
			return nil, err
		}
		entry.variants = variants

		if ix.cfg.SemanticEnabled {
			vec, err := ix.provider.Vector(ctx, strings.ToLower(kw.Name))
			if err != nil {
				return nil, fmt.Errorf("failed to embed keyword %q: %w", kw.Name, err)
			}
			entry.vector = vec
		}

		idx := len(ms.entries)
		ms.entries = append(ms.entries, entry)
		ms.byFirst[tokens[0]] = append(ms.byFirst[tokens[0]], idx)
		if len(entry.lemmas) > 0 && entry.lemmas[0] != "" {
			ms.byLemma[entry.lemmas[0]] = append(ms.byLemma[entry.lemmas[0]], idx)
		}
	}

	if ix.cfg.SemanticEnabled {
		ms.semantic = newSemanticSearcher(ms.entries, ix.cfg.SemanticThreshold)
	}

	return ms, nil
}

// variantsFor expands each keyword token into its accepted variant forms:
// the raw token, its diacritic-stripped form, its canonical (stemmed) form,
// its lemma, and its synonyms.
func (ix *Index) variantsFor(ctx context.Context, tokens, lemmas []string) ([][]string, error) {
	variants := make([][]string, len(tokens))
	for i, tok := range tokens {
		seen := map[string]struct{}{}
		add := func(v string) {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				return
			}
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				variants[i] = append(variants[i], v)
			}
		}

		add(tok)
		add(textnorm.StripDiacritics(tok))
		add(textnorm.Normalize(tok))
		if i < len(lemmas) {
			add(lemmas[i])
			add(textnorm.Normalize(lemmas[i]))
		}

		syns, err := ix.provider.Synonyms(ctx, tok)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch synonyms for %q: %w", tok, err)
		}
		for _, s := range syns {
			add(s)
			add(textnorm.Normalize(s))
		}
	}
	return variants, nil
}
