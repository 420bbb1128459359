package textnorm

import "testing"

func TestStripDiacritics(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "romanian diacritics", token: "achiziție", want: "achizitie"},
		{name: "cedilla variants", token: "şţăâî", want: "staai"},
		{name: "plain ascii", token: "contract", want: "contract"},
		{name: "empty", token: "", want: ""},
		{name: "non latin dropped", token: "a€b", want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripDiacritics(tt.token); got != tt.want {
				t.Errorf("StripDiacritics(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Errorf("Normalize(\"\") = %q, want \"\"", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	tokens := []string{
		"",
		"document",
		"documentele",
		"contract",
		"contractul",
		"x",
		"1234",
	}

	for _, token := range tokens {
		once := Normalize(token)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first=%q second=%q", token, once, twice)
		}
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	first := Normalize("achizițiile")
	for i := 0; i < 3; i++ {
		if got := Normalize("achizițiile"); got != first {
			t.Fatalf("Normalize returned different results across calls: %q vs %q", got, first)
		}
	}
}

func TestHasAlpha(t *testing.T) {
	if HasAlpha("1234") {
		t.Error("HasAlpha(\"1234\") = true, want false")
	}
	if !HasAlpha("a1") {
		t.Error("HasAlpha(\"a1\") = false, want true")
	}
	if HasAlpha("") {
		t.Error("HasAlpha(\"\") = true, want false")
	}
}
