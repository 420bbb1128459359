// Package quality scores extracted OCR text for plausibility against the
// Romanian alphabet and a vocabulary set.
package quality

import (
	"math"
	"strings"
	"unicode"

	"github.com/andrei/docscan/internal/logger"
	"github.com/andrei/docscan/internal/textnorm"
	"github.com/andrei/docscan/internal/vocab"
)

// skippedMarker prefixes text produced when the OCR engine skipped every page.
const skippedMarker = "[OCR skipped on page(s)"

// roChars is the accepted Romanian character set: letters, digits, common
// punctuation, and whitespace. Characters outside it count against the score.
var roChars = buildCharSet("aăâbcdefghiîjklmnopqrsșştțţuvxz0123456789 \n\t”„«»—“'!\"?.,\\/`()[]:;-")

func buildCharSet(chars string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(chars))
	for _, r := range chars {
		set[r] = struct{}{}
	}
	return set
}

// Estimator blends character and word plausibility into a 0..100 score.
type Estimator struct {
	vocab *vocab.Set
	log   *logger.Logger
}

// NewEstimator creates an estimator over the given vocabulary.
// Parameters:
//   - set: read-only vocabulary used for word plausibility.
//   - log: structured logger.
// Returns:
//   - *Estimator: initialized estimator.
func NewEstimator(set *vocab.Set, log *logger.Logger) *Estimator {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Estimator{vocab: set, log: log}
}

// hasContent reports whether text holds anything worth scoring. Empty text
// and the OCR-skipped marker are vacuously fine.
func hasContent(text string) bool {
	if strings.HasPrefix(text, skippedMarker) {
		return false
	}
	return len(strings.TrimSpace(text)) != 0
}

// CharScore is the fraction of lower-cased characters inside the accepted
// alphabet.
// Parameters:
//   - text: non-empty text to score.
// Returns:
//   - float64: score in [0,1].
func (e *Estimator) CharScore(text string) float64 {
	lower := strings.ToLower(text)
	total := 0
	correct := 0
	for _, r := range lower {
		total++
		if _, ok := roChars[r]; ok {
			correct++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// WordScore is the fraction of tokens found, raw or normalized, in the
// vocabulary. The denominator is seeded at 1 so a vocabulary-free slice
// scores low instead of dividing by zero.
// Parameters:
//   - text: non-empty text to score.
// Returns:
//   - float64: score in [0,1].
func (e *Estimator) WordScore(text string) float64 {
	tokens := Tokenize(strings.ToLower(text))
	correct := 0
	all := 1
	for _, word := range tokens {
		normalized := textnorm.Normalize(word)
		if normalized == "" || !hasASCIILetter(normalized) {
			continue
		}
		if e.vocab.Contains(normalized) || e.vocab.Contains(word) {
			correct++
		}
		all++
	}
	score := float64(correct) / float64(all)
	e.log.WithFields(logger.Fields{
		"tokens":  len(tokens),
		"correct": correct,
	}).Debugf("[WER] score=%.4f", score)
	return score
}

// Estimate computes the blended quality score for text.
// Parameters:
//   - text: extracted OCR text.
// Returns:
//   - float64: score in [0,100]; exactly 100 for empty or OCR-skipped text.
func (e *Estimator) Estimate(text string) float64 {
	if !hasContent(text) {
		return 100
	}
	blended := (e.CharScore(text) + e.WordScore(text)) / 2 * 100
	return math.Round(blended*100) / 100
}

// Tokenize splits lower-cased text into word tokens. Hyphens are kept inside
// tokens so hyphenated compounds survive.
// Parameters:
//   - text: input text.
// Returns:
//   - []string: tokens in order of appearance.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

func hasASCIILetter(s string) bool {
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return true
		}
	}
	return false
}
