// Package ocr invokes the external OCR engine with a layered fallback
// policy and extracts the recognized text.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/andrei/docscan/internal/logger"
	"github.com/andrei/docscan/internal/pdfio"
	"github.com/andrei/docscan/internal/textclean"
)

// Error reports an OCR invocation whose output could not be used.
type Error struct {
	ExitCode int
	Stderr   string
}

// Error implements the error interface.
// Parameters: none.
// Returns:
//   - string: description including exit code and stderr tail.
func (e *Error) Error() string {
	return fmt.Sprintf("ocr failed with exit code %d: %s", e.ExitCode, e.Stderr)
}

// Commander runs the external OCR binary. Abstracted for tests.
type Commander interface {
	// Run executes the command and returns its exit code and stderr text.
	// A non-zero exit code is not an error at this layer.
	Run(ctx context.Context, name string, args ...string) (int, string, error)
}

type execCommander struct{}

// Run executes the command via os/exec.
func (execCommander) Run(ctx context.Context, name string, args ...string) (int, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), stderr.String(), nil
		}
		return -1, stderr.String(), fmt.Errorf("failed to run %s: %w", name, err)
	}
	return 0, stderr.String(), nil
}

// Config controls the OCR invocation.
type Config struct {
	Binary            string  // ocrmypdf binary name or path
	Language          string  // tesseract language code
	PDFAMaxPages      int     // documents above this skip PDF/A conversion
	RotationThreshold float64 // page-rotation confidence override for forced passes
}

// Runner drives the external OCR engine.
type Runner struct {
	cfg     *Config
	cmd     Commander
	engine  pdfio.Engine
	cleaner *textclean.Cleaner
	log     *logger.Logger
}

// NewRunner creates an OCR runner.
// Parameters:
//   - cfg: OCR configuration.
//   - engine: PDF primitives used to verify outputs and extract text.
//   - cleaner: line cleaner applied to extracted text.
//   - log: structured logger.
// Returns:
//   - *Runner: initialized runner.
func NewRunner(cfg *Config, engine pdfio.Engine, cleaner *textclean.Cleaner, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Runner{cfg: cfg, cmd: execCommander{}, engine: engine, cleaner: cleaner, log: log}
}

// SetCommander replaces the command executor. Used in tests.
// Parameters:
//   - cmd: replacement executor.
// Returns: none.
func (r *Runner) SetCommander(cmd Commander) {
	r.cmd = cmd
}

// Run recognizes in into out. The primary attempt requests PDF/A conversion
// unless the document exceeds the page threshold; on a non-zero exit with a
// structurally invalid output it retries once requesting plain PDF. A
// non-zero exit whose output is independently valid is tolerated: the
// external engine is known to be noisy.
// Parameters:
//   - ctx: context for cancellation.
//   - in: input document path.
//   - out: recognized output path.
//   - forceRotate: force page-orientation correction, a heavier pass.
// Returns:
//   - error: *Error when both the primary and fallback outputs are unusable.
func (r *Runner) Run(ctx context.Context, in, out string, forceRotate bool) error {
	pages, err := r.engine.PageCount(in)
	if err != nil {
		// The validator has already vetted the input; treat a counting
		// failure as zero and let the OCR engine decide.
		r.log.WithError(err).Warn("Could not count pages before OCR")
		pages = 0
	}

	plainPDF := r.cfg.PDFAMaxPages > 0 && pages > r.cfg.PDFAMaxPages
	if plainPDF {
		r.log.WithField(logger.FieldPages, pages).
			Info("Large document, skipping PDF/A conversion")
	}

	exitCode, stderr, err := r.invoke(ctx, in, out, forceRotate, plainPDF)
	if err != nil {
		return err
	}
	if exitCode == 0 {
		return nil
	}
	if r.engine.Validate(out) == nil {
		r.log.WithField("exit_code", exitCode).
			Warn("OCR exited non-zero but produced a usable PDF")
		return nil
	}

	if !plainPDF {
		r.log.Info("OCR failed, trying again with --output-type pdf")
		exitCode, stderr, err = r.invoke(ctx, in, out, forceRotate, true)
		if err != nil {
			return err
		}
		if exitCode == 0 || r.engine.Validate(out) == nil {
			return nil
		}
	}

	r.log.WithField("exit_code", exitCode).Error("The generated PDF is INVALID")
	return &Error{ExitCode: exitCode, Stderr: stderr}
}

func (r *Runner) invoke(ctx context.Context, in, out string, forceRotate, plainPDF bool) (int, string, error) {
	args := []string{"--skip-text", "-l", r.cfg.Language}
	if plainPDF {
		args = append(args, "--output-type", "pdf")
	}
	if forceRotate {
		r.log.Info("Forcing page rotation")
		args = append(args,
			"--rotate-pages",
			"--rotate-pages-threshold", strconv.FormatFloat(r.cfg.RotationThreshold, 'f', -1, 64),
		)
	}
	args = append(args, in, out)

	r.log.WithFields(logger.Fields{
		"binary": r.cfg.Binary,
		"args":   args,
	}).Debug("Invoking OCR engine")

	return r.cmd.Run(ctx, r.cfg.Binary, args...)
}

// ExtractText pulls the recognized text out of a processed document and runs
// it through the line cleaner.
// Parameters:
//   - path: recognized document path.
// Returns:
//   - string: cleaned extracted text.
//   - *textclean.Stats: cleaner rejection counters.
//   - error: non-nil if extraction fails.
func (r *Runner) ExtractText(path string) (string, *textclean.Stats, error) {
	raw, err := r.engine.ExtractText(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to extract text from %s: %w", path, err)
	}
	cleaned, stats := r.cleaner.CleanText(raw)
	return cleaned, stats, nil
}
