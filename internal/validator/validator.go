// Package validator gates input documents before OCR: existence, structural
// validity, encryption, and page-count bounds.
package validator

import (
	"errors"
	"fmt"
	"os"

	"github.com/andrei/docscan/internal/logger"
	"github.com/andrei/docscan/internal/pdfio"
)

// Kind classifies a validation failure.
type Kind string

const (
	// KindNotFound means the path does not exist.
	KindNotFound Kind = "not_found"
	// KindCorrupt means the file fails structural PDF parsing, or its
	// protection layer could not be removed.
	KindCorrupt Kind = "corrupt"
	// KindTooLarge means the page count exceeds the configured ceiling.
	KindTooLarge Kind = "too_large"
)

// Error is a validation failure, fatal for the processing attempt.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

// Error implements the error interface.
// Parameters: none.
// Returns:
//   - string: human-readable description.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("document %s is %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("document %s is %s", e.Path, e.Kind)
}

// Unwrap returns the wrapped cause.
// Parameters: none.
// Returns:
//   - error: underlying error, possibly nil.
func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a validation *Error from err.
// Parameters:
//   - err: any error.
// Returns:
//   - *Error: the validation error, or nil.
func AsError(err error) *Error {
	var verr *Error
	if errors.As(err, &verr) {
		return verr
	}
	return nil
}

// Validator checks input documents.
type Validator struct {
	engine   pdfio.Engine
	maxPages int
	log      *logger.Logger
}

// New creates a Validator.
// Parameters:
//   - engine: PDF primitives.
//   - maxPages: page-count ceiling; 0 disables the bound.
//   - log: structured logger.
// Returns:
//   - *Validator: initialized validator.
func New(engine pdfio.Engine, maxPages int, log *logger.Logger) *Validator {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Validator{engine: engine, maxPages: maxPages, log: log}
}

// Validate checks the document at path. Encrypted or signed documents are
// rewritten in place without their protection layer and re-validated; the
// descriptor itself is never mutated.
// Parameters:
//   - path: input document path.
// Returns:
//   - error: *Error on failure, nil when the document is processable.
func (v *Validator) Validate(path string) error {
	if _, err := os.Stat(path); err != nil {
		return &Error{Kind: KindNotFound, Path: path, Err: err}
	}

	protected, err := v.engine.IsProtected(path)
	if err != nil {
		return &Error{Kind: KindCorrupt, Path: path, Err: err}
	}
	if protected {
		v.log.WithField("path", path).Info("Document is protected, removing protection")
		if err := v.engine.RemoveProtection(path); err != nil {
			return &Error{Kind: KindCorrupt, Path: path, Err: err}
		}
	}

	if err := v.engine.Validate(path); err != nil {
		return &Error{Kind: KindCorrupt, Path: path, Err: err}
	}

	pages, err := v.engine.PageCount(path)
	if err != nil {
		return &Error{Kind: KindCorrupt, Path: path, Err: err}
	}
	if v.maxPages > 0 && pages > v.maxPages {
		return &Error{
			Kind: KindTooLarge,
			Path: path,
			Err:  fmt.Errorf("%d pages exceeds the ceiling of %d", pages, v.maxPages),
		}
	}

	return nil
}
