// Package pdfio wraps the PDF primitives consumed by the pipeline: structural
// validation, decryption rewrite, positioned text extraction, and highlight
// annotation output.
package pdfio

import "github.com/andrei/docscan/internal/domain"

// Word is one word on a page with its bounding rectangle.
type Word struct {
	Text string
	Rect domain.Rect
}

// Page is the positioned text content of one page. Number is zero-based.
type Page struct {
	Number int
	Words  []Word
}

// MarkKind selects the visual style of an annotation.
type MarkKind string

const (
	// MarkKeyword is a primary highlight for direct keyword matches.
	MarkKeyword MarkKind = "keyword"
	// MarkSemantic is a secondary highlight tint for semantic matches.
	MarkSemantic MarkKind = "semantic"
	// MarkEntity is an underline for named-entity matches.
	MarkEntity MarkKind = "entity"
)

// Mark is one annotation to draw on the output PDF.
type Mark struct {
	Page int
	Rect domain.Rect
	Kind MarkKind
}

// Engine is the PDF capability the core depends on. A single implementation
// backed by pdfcpu and a positioned-text reader is used in production;
// tests substitute fakes.
type Engine interface {
	// PageCount returns the number of pages.
	PageCount(path string) (int, error)
	// Validate checks structural validity, failing for broken files.
	Validate(path string) error
	// IsProtected reports whether the document is encrypted or
	// password-protected.
	IsProtected(path string) (bool, error)
	// RemoveProtection rewrites the document in place without its
	// encryption layer.
	RemoveProtection(path string) error
	// ExtractText returns the document text, consecutive text blocks per
	// page joined with newlines.
	ExtractText(path string) (string, error)
	// Pages returns per-page words with coordinates.
	Pages(path string) ([]Page, error)
	// WriteMarks copies path to outPath and draws the marks.
	WriteMarks(path, outPath string, marks []Mark) error
}
