// Package vocab loads the word sets used for OCR quality estimation.
package vocab

import (
	"fmt"
	"os"
	"strings"

	"github.com/andrei/docscan/internal/textnorm"
)

// Set is the read-only vocabulary: base words, custom words, their
// normalized forms, and stop words. Loaded once at startup.
type Set struct {
	words map[string]struct{}
}

// Config names the word list files to load.
type Config struct {
	VocabPath     string
	WordlistPath  string
	StopwordsPath string
}

// Load builds the vocabulary set from the configured files.
// Parameters:
//   - cfg: paths to the base vocabulary, custom word list, and stop words.
// Returns:
//   - *Set: loaded vocabulary.
//   - error: non-nil if the base vocabulary cannot be read. The custom word
//     list and stop word files are optional.
func Load(cfg *Config) (*Set, error) {
	words := make(map[string]struct{})

	if err := addFile(words, cfg.VocabPath); err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}
	// Custom additions improve coverage but their absence is not fatal.
	_ = addFile(words, cfg.WordlistPath)
	_ = addFile(words, cfg.StopwordsPath)

	// The normalized forms let a stemmed token hit the vocabulary too.
	normalized := make([]string, 0, len(words))
	for w := range words {
		normalized = append(normalized, textnorm.Normalize(w))
	}
	for _, w := range normalized {
		if w != "" {
			words[w] = struct{}{}
		}
	}

	return &Set{words: words}, nil
}

// FromWords builds a set directly from a word slice. Used in tests and for
// small embedded vocabularies.
// Parameters:
//   - ws: words to include; normalized forms are added as well.
// Returns:
//   - *Set: vocabulary over ws.
func FromWords(ws []string) *Set {
	words := make(map[string]struct{}, len(ws)*2)
	for _, w := range ws {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		words[w] = struct{}{}
		if n := textnorm.Normalize(w); n != "" {
			words[n] = struct{}{}
		}
	}
	return &Set{words: words}
}

// Contains reports whether w is in the vocabulary.
// Parameters:
//   - w: word to look up, expected lower-cased.
// Returns:
//   - bool: true if present.
func (s *Set) Contains(w string) bool {
	_, ok := s.words[w]
	return ok
}

// Len returns the number of distinct entries.
// Parameters: none.
// Returns:
//   - int: entry count.
func (s *Set) Len() int {
	return len(s.words)
}

func addFile(words map[string]struct{}, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, w := range strings.Fields(string(data)) {
		words[w] = struct{}{}
	}
	return nil
}
