package ocr

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/andrei/docscan/internal/pdfio"
	"github.com/andrei/docscan/internal/textclean"
)

type fakeEngine struct {
	pages       int
	validateErr error
	text        string
}

func (f *fakeEngine) PageCount(path string) (int, error)           { return f.pages, nil }
func (f *fakeEngine) Validate(path string) error                   { return f.validateErr }
func (f *fakeEngine) IsProtected(path string) (bool, error)        { return false, nil }
func (f *fakeEngine) RemoveProtection(path string) error           { return nil }
func (f *fakeEngine) ExtractText(path string) (string, error)      { return f.text, nil }
func (f *fakeEngine) Pages(path string) ([]pdfio.Page, error)      { return nil, nil }
func (f *fakeEngine) WriteMarks(p, o string, m []pdfio.Mark) error { return nil }

type fakeCommander struct {
	calls     [][]string
	exitCodes []int
}

func (f *fakeCommander) Run(ctx context.Context, name string, args ...string) (int, string, error) {
	f.calls = append(f.calls, args)
	code := 0
	if len(f.exitCodes) > 0 {
		code = f.exitCodes[0]
		f.exitCodes = f.exitCodes[1:]
	}
	return code, "engine stderr", nil
}

func newTestRunner(engine *fakeEngine, cmd *fakeCommander) *Runner {
	r := NewRunner(&Config{
		Binary:            "ocrmypdf",
		Language:          "ron",
		PDFAMaxPages:      100,
		RotationThreshold: 0.4,
	}, engine, textclean.New(nil), nil)
	r.SetCommander(cmd)
	return r
}

func TestRunPrimarySuccess(t *testing.T) {
	cmd := &fakeCommander{}
	r := newTestRunner(&fakeEngine{pages: 3}, cmd)

	if err := r.Run(context.Background(), "in.pdf", "out.pdf", false); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(cmd.calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(cmd.calls))
	}
	if slices.Contains(cmd.calls[0], "--output-type") {
		t.Errorf("primary attempt should request PDF/A, got args %v", cmd.calls[0])
	}
}

func TestRunFallbackToPlainPDF(t *testing.T) {
	cmd := &fakeCommander{exitCodes: []int{2, 0}}
	engine := &fakeEngine{pages: 3, validateErr: errors.New("invalid output")}
	r := newTestRunner(engine, cmd)

	if err := r.Run(context.Background(), "in.pdf", "out.pdf", false); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(cmd.calls) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(cmd.calls))
	}
	if !slices.Contains(cmd.calls[1], "--output-type") {
		t.Errorf("fallback should request plain PDF, got args %v", cmd.calls[1])
	}
}

func TestRunToleratesNoisyExitWithValidOutput(t *testing.T) {
	cmd := &fakeCommander{exitCodes: []int{1}}
	r := newTestRunner(&fakeEngine{pages: 3}, cmd) // Validate returns nil

	if err := r.Run(context.Background(), "in.pdf", "out.pdf", false); err != nil {
		t.Fatalf("expected noisy exit to be tolerated, got %v", err)
	}
	if len(cmd.calls) != 1 {
		t.Errorf("expected no fallback invocation, got %d calls", len(cmd.calls))
	}
}

func TestRunExhaustedFallback(t *testing.T) {
	cmd := &fakeCommander{exitCodes: []int{2, 2}}
	engine := &fakeEngine{pages: 3, validateErr: errors.New("invalid output")}
	r := newTestRunner(engine, cmd)

	err := r.Run(context.Background(), "in.pdf", "out.pdf", false)
	var ocrErr *Error
	if !errors.As(err, &ocrErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ocrErr.ExitCode != 2 {
		t.Errorf("ExitCode = %d, want 2", ocrErr.ExitCode)
	}
}

func TestRunLargeDocumentSkipsPDFA(t *testing.T) {
	cmd := &fakeCommander{}
	r := newTestRunner(&fakeEngine{pages: 150}, cmd)

	if err := r.Run(context.Background(), "in.pdf", "out.pdf", false); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(cmd.calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(cmd.calls))
	}
	if !slices.Contains(cmd.calls[0], "--output-type") {
		t.Errorf("large document should request plain PDF directly, got %v", cmd.calls[0])
	}
}

func TestRunForceRotate(t *testing.T) {
	cmd := &fakeCommander{}
	r := newTestRunner(&fakeEngine{pages: 3}, cmd)

	if err := r.Run(context.Background(), "in.pdf", "out.pdf", true); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !slices.Contains(cmd.calls[0], "--rotate-pages") {
		t.Errorf("expected --rotate-pages in args %v", cmd.calls[0])
	}
}

func TestExtractTextCleans(t *testing.T) {
	engine := &fakeEngine{text: "scurt\no linie suficient de lunga pentru a supravietui curatarii"}
	r := newTestRunner(engine, &fakeCommander{})

	text, stats, err := r.ExtractText("out.pdf")
	if err != nil {
		t.Fatalf("ExtractText returned error: %v", err)
	}
	if text != "o linie suficient de lunga pentru a supravietui curatarii" {
		t.Errorf("unexpected cleaned text: %q", text)
	}
	if stats.SkippedMinLength[0] != 1 {
		t.Errorf("SkippedMinLength = %d, want 1", stats.SkippedMinLength[0])
	}
}
