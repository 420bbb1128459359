// Package textnorm provides the canonical token form used for vocabulary
// lookups and keyword matching: Romanian snowball stem with diacritics
// stripped.
package textnorm

import (
	"strings"
	"unicode"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/romanian"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// decomposer splits characters into base form plus combining marks and drops
// the marks.
var decomposer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// StripDiacritics returns token with diacritics and any remaining non-ASCII
// runes removed.
// Parameters:
//   - token: input token.
// Returns:
//   - string: ASCII-only form of token.
func StripDiacritics(token string) string {
	decomposed, _, err := transform.String(decomposer, token)
	if err != nil {
		decomposed = token
	}
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Stem applies the Romanian snowball stemmer to token.
// Parameters:
//   - token: input token, expected lower-cased.
// Returns:
//   - string: stemmed token.
func Stem(token string) string {
	if token == "" {
		return ""
	}
	env := snowballstem.NewEnv(token)
	romanian.Stem(env)
	return env.Current()
}

// Normalize returns the canonical form of token: stemmed, then diacritics
// stripped. Deterministic and idempotent; an empty token normalizes to "".
// Parameters:
//   - token: input token.
// Returns:
//   - string: canonical token.
func Normalize(token string) string {
	return StripDiacritics(Stem(token))
}

// HasAlpha reports whether token contains at least one letter.
// Parameters:
//   - token: input token.
// Returns:
//   - bool: true if any rune is a letter.
func HasAlpha(token string) bool {
	for _, r := range token {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
