// Package textclean filters and rewrites OCR-extracted text lines before
// quality estimation and storage.
package textclean

import (
	"regexp"
	"strings"
	"unicode"
)

// Config holds the cleaner thresholds.
type Config struct {
	MinLineLength     int     // drop lines shorter than this, before and after cleaning
	MaxNumericPercent float64 // drop when digit/alpha ratio exceeds this and digits > 6
	MaxNonASCII       float64 // drop when ascii/alpha ratio is below this for lines > 15 chars
}

// DefaultConfig returns the thresholds used by the worker.
// Parameters: none.
// Returns:
//   - *Config: default cleaner thresholds.
func DefaultConfig() *Config {
	return &Config{
		MinLineLength:     20,
		MaxNumericPercent: 0.7,
		MaxNonASCII:       0.40,
	}
}

// Stats counts rejected lines and characters per rejection reason. For
// observability only; no control flow depends on it.
type Stats struct {
	SkippedMinLength      [2]uint64 // lines, chars
	SkippedAlphaCount     [2]uint64
	SkippedMaxNumeric     [2]uint64
	SkippedMaxNonASCII    [2]uint64
	SkippedForbiddenChars [2]uint64
	TotalOriginalLength   uint64
	TotalCleanLength      uint64
}

// Add merges other into s. Used when cleaning multiple documents.
// Parameters:
//   - other: stats to accumulate.
// Returns: none.
func (s *Stats) Add(other *Stats) {
	for i := 0; i < 2; i++ {
		s.SkippedMinLength[i] += other.SkippedMinLength[i]
		s.SkippedAlphaCount[i] += other.SkippedAlphaCount[i]
		s.SkippedMaxNumeric[i] += other.SkippedMaxNumeric[i]
		s.SkippedMaxNonASCII[i] += other.SkippedMaxNonASCII[i]
		s.SkippedForbiddenChars[i] += other.SkippedForbiddenChars[i]
	}
	s.TotalOriginalLength += other.TotalOriginalLength
	s.TotalCleanLength += other.TotalCleanLength
}

// DroppedLines returns the total number of rejected lines across all
// rejection reasons.
// Parameters: none.
// Returns:
//   - uint64: rejected line count.
func (s *Stats) DroppedLines() uint64 {
	return s.SkippedMinLength[0] +
		s.SkippedAlphaCount[0] +
		s.SkippedMaxNumeric[0] +
		s.SkippedMaxNonASCII[0] +
		s.SkippedForbiddenChars[0]
}

// forbiddenChars cause a lot of garbage sentences in OCR output.
const forbiddenChars = "ºþÈ™ÓÑÄÈÃ®ƒ"

var (
	// hyphenated line-wrap artifacts: "necesar să- l recitiți"
	reHyphenWrap = regexp.MustCompile(`(?i)([\p{L}\d_]+-)\s([\p{L}\d_]+)`)
	// slash splits: "100 U/ ml"
	reSlashSplit = regexp.MustCompile(`(?i)([\p{L}\d_]+/)\s([\p{L}\d_]+)`)
	// all unicode dash variants and bullets to '-'
	reDashes = regexp.MustCompile("[■•~­֊־᐀᠆‐‑‒–—―⁓⁻₋−⸗⸺⸻〜〰゠︱︲﹣－]+")
	// spaces after comma in numbers: "1, 4%" -> "1,4%"
	reNumComma = regexp.MustCompile(`(\d+,)\s(\d+)`)
	// soft hyphens
	reSoftHyphen = regexp.MustCompile("[­]")
	// URLs
	reURL = regexp.MustCompile(`(?:www|http)\S+|<\S+|\w+/*>`)
	// emails
	reEmail = regexp.MustCompile(`[^@\s]+@[^@\s]+\.[^@\s]+`)
	// box-drawing table separators
	reBoxSep  = regexp.MustCompile("[─]+")
	reDashSep = regexp.MustCompile(`--+`)
	// multiple spaces
	reSpaces = regexp.MustCompile(` +`)
)

// misencoded maps diacritics that OCR commonly mangles to their correct form.
var misencoded = strings.NewReplacer(
	"( ă)", "(ă)",
	"ţ", "ț",
	"ş", "ș",
	"Ţ", "Ț",
	"Ş", "Ș",
	"Ã¢", "â",
)

// Cleaner filters text lines using configured thresholds.
type Cleaner struct {
	cfg *Config
}

// New creates a Cleaner.
// Parameters:
//   - cfg: thresholds; nil uses DefaultConfig.
// Returns:
//   - *Cleaner: initialized cleaner.
func New(cfg *Config) *Cleaner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Cleaner{cfg: cfg}
}

// CleanText splits text into lines, cleans them, and joins the survivors.
// Parameters:
//   - text: raw extracted text.
// Returns:
//   - string: cleaned text.
//   - *Stats: per-reason rejection counters.
func (c *Cleaner) CleanText(text string) (string, *Stats) {
	lines, stats := c.Clean(strings.Split(text, "\n"))
	return strings.Join(lines, "\n"), stats
}

// Clean filters and rewrites lines.
// Parameters:
//   - lines: input lines.
// Returns:
//   - []string: surviving, rewritten lines.
//   - *Stats: per-reason rejection counters.
func (c *Cleaner) Clean(lines []string) ([]string, *Stats) {
	stats := &Stats{}
	var output []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		length := uint64(len([]rune(line)))
		stats.TotalOriginalLength += length

		if int(length) < c.cfg.MinLineLength {
			skip(&stats.SkippedMinLength, length)
			continue
		}

		digits, alpha, ascii, forbidden := charCounts(line)
		if forbidden {
			skip(&stats.SkippedForbiddenChars, length)
			continue
		}
		if alpha == 0 || float64(alpha)/float64(length) < 0.5 {
			skip(&stats.SkippedAlphaCount, length)
			continue
		}
		if float64(digits)/float64(alpha) >= c.cfg.MaxNumericPercent && digits > 6 {
			skip(&stats.SkippedMaxNumeric, length)
			continue
		}
		if float64(ascii)/float64(alpha) < c.cfg.MaxNonASCII && length > 15 {
			skip(&stats.SkippedMaxNonASCII, length)
			continue
		}
		if isTableRow(line) {
			skip(&stats.SkippedForbiddenChars, length)
			continue
		}

		line = rewrite(line)

		if len([]rune(line)) < c.cfg.MinLineLength {
			skip(&stats.SkippedMinLength, length)
			continue
		}

		stats.TotalCleanLength += uint64(len([]rune(line)))
		output = append(output, line)
	}

	return output, stats
}

func skip(counter *[2]uint64, length uint64) {
	counter[0]++
	counter[1] += length
}

func charCounts(line string) (digits, alpha, ascii int, forbidden bool) {
	for _, r := range line {
		if strings.ContainsRune(forbiddenChars, r) {
			return 0, 0, 0, true
		}
		if unicode.IsDigit(r) {
			digits++
		}
		if unicode.IsLetter(r) {
			alpha++
		}
		if r < 128 {
			ascii++
		}
	}
	return digits, alpha, ascii, false
}

// isTableRow detects ASCII/box-drawing table rows: a pipe-like first rune
// and at least two more separators.
func isTableRow(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "|") && strings.Count(trimmed, "|") > 2 {
		return true
	}
	if strings.HasPrefix(trimmed, "│") && strings.Count(trimmed, "│") > 2 {
		return true
	}
	return false
}

func rewrite(line string) string {
	line = reHyphenWrap.ReplaceAllString(line, "$1$2")
	line = reSlashSplit.ReplaceAllString(line, "$1$2")
	line = reDashes.ReplaceAllString(line, "-")
	line = reNumComma.ReplaceAllString(line, "$1$2")
	line = reSoftHyphen.ReplaceAllString(line, "")
	line = reURL.ReplaceAllString(line, "")
	line = reEmail.ReplaceAllString(line, "")
	line = reBoxSep.ReplaceAllString(line, "")
	line = reDashSep.ReplaceAllString(line, "")
	line = misencoded.Replace(line)
	line = reSpaces.ReplaceAllString(line, " ")
	return strings.TrimSpace(line)
}
