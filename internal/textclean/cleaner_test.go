package textclean

import (
	"strings"
	"testing"
)

func TestCleanDropsShortLines(t *testing.T) {
	c := New(nil)

	lines, stats := c.Clean([]string{"prea scurt", "aceasta este o linie suficient de lunga incat sa treaca"})
	if len(lines) != 1 {
		t.Fatalf("expected 1 surviving line, got %d: %v", len(lines), lines)
	}
	if stats.SkippedMinLength[0] != 1 {
		t.Errorf("SkippedMinLength lines = %d, want 1", stats.SkippedMinLength[0])
	}
}

func TestCleanDropsForbiddenChars(t *testing.T) {
	c := New(nil)

	lines, stats := c.Clean([]string{"aceasta linie contine caracterul interzis º undeva"})
	if len(lines) != 0 {
		t.Fatalf("expected line to be dropped, got %v", lines)
	}
	if stats.SkippedForbiddenChars[0] != 1 {
		t.Errorf("SkippedForbiddenChars lines = %d, want 1", stats.SkippedForbiddenChars[0])
	}
}

func TestCleanDropsNumericLines(t *testing.T) {
	c := New(nil)

	// 9 digits against 12 letters exceeds the numeric ceiling.
	lines, stats := c.Clean([]string{"abcd efgh ijkl 123456789"})
	if len(lines) != 0 {
		t.Fatalf("expected numeric line to be dropped, got %v", lines)
	}
	if stats.SkippedMaxNumeric[0] != 1 {
		t.Errorf("SkippedMaxNumeric lines = %d, want 1", stats.SkippedMaxNumeric[0])
	}
}

func TestCleanDropsTableRows(t *testing.T) {
	c := New(nil)

	lines, _ := c.Clean([]string{"| coloana unu | coloana doi | coloana trei |"})
	if len(lines) != 0 {
		t.Fatalf("expected table row to be dropped, got %v", lines)
	}
}

func TestCleanRewritesHyphenWrap(t *testing.T) {
	c := New(nil)

	lines, _ := c.Clean([]string{"s-ar putea să fie necesar să- l recitiți imediat"})
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %v", lines)
	}
	if strings.Contains(lines[0], "să- l") {
		t.Errorf("hyphen wrap not collapsed: %q", lines[0])
	}
	if !strings.Contains(lines[0], "să-l") {
		t.Errorf("expected collapsed form in %q", lines[0])
	}
}

func TestCleanRemovesURLsAndEmails(t *testing.T) {
	c := New(nil)

	lines, _ := c.Clean([]string{"detalii suplimentare la www.example.com/achizitii sau la adresa contact@example.com imediat"})
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %v", lines)
	}
	if strings.Contains(lines[0], "www.example.com") || strings.Contains(lines[0], "contact@example.com") {
		t.Errorf("URL or email survived: %q", lines[0])
	}
}

func TestCleanFixesMisencodedDiacritics(t *testing.T) {
	c := New(nil)

	lines, _ := c.Clean([]string{"autoritatea contractantă a iniţiat procedura de achiziţie publică"})
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %v", lines)
	}
	if strings.Contains(lines[0], "ţ") {
		t.Errorf("cedilla form survived: %q", lines[0])
	}
	if !strings.Contains(lines[0], "achiziție") {
		t.Errorf("expected corrected diacritics in %q", lines[0])
	}
}

func TestCleanNormalizesDashes(t *testing.T) {
	c := New(nil)

	lines, _ := c.Clean([]string{"termenul de livrare – treizeci de zile lucrătoare"})
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %v", lines)
	}
	if strings.ContainsRune(lines[0], '–') {
		t.Errorf("en dash survived: %q", lines[0])
	}
	if !strings.Contains(lines[0], "-") {
		t.Errorf("expected normalized dash in %q", lines[0])
	}
}

func TestCleanTextCountersAdd(t *testing.T) {
	c := New(nil)

	_, a := c.CleanText("scurt\nalta linie mult prea scurta aici nu")
	_, b := c.CleanText("scurt")

	a.Add(b)
	if a.SkippedMinLength[0] < 2 {
		t.Errorf("expected accumulated skip count >= 2, got %d", a.SkippedMinLength[0])
	}
}

func TestStatsDroppedLines(t *testing.T) {
	s := Stats{
		SkippedMinLength:      [2]uint64{1, 5},
		SkippedAlphaCount:     [2]uint64{2, 12},
		SkippedMaxNumeric:     [2]uint64{3, 30},
		SkippedMaxNonASCII:    [2]uint64{4, 8},
		SkippedForbiddenChars: [2]uint64{5, 7},
	}
	if got := s.DroppedLines(); got != 15 {
		t.Errorf("DroppedLines() = %d, want 15", got)
	}
}
