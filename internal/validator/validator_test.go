package validator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/andrei/docscan/internal/pdfio"
)

type fakeEngine struct {
	pages        int
	protected    bool
	validateErr  error
	removeErr    error
	removeCalled bool
}

func (f *fakeEngine) PageCount(path string) (int, error)       { return f.pages, nil }
func (f *fakeEngine) Validate(path string) error               { return f.validateErr }
func (f *fakeEngine) IsProtected(path string) (bool, error)    { return f.protected, nil }
func (f *fakeEngine) ExtractText(path string) (string, error)  { return "", nil }
func (f *fakeEngine) Pages(path string) ([]pdfio.Page, error)  { return nil, nil }
func (f *fakeEngine) WriteMarks(p, o string, m []pdfio.Mark) error { return nil }

func (f *fakeEngine) RemoveProtection(path string) error {
	f.removeCalled = true
	if f.removeErr != nil {
		return f.removeErr
	}
	f.protected = false
	return nil
}

func tempPDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateMissingFile(t *testing.T) {
	v := New(&fakeEngine{pages: 1}, 100, nil)

	err := v.Validate(filepath.Join(t.TempDir(), "missing.pdf"))
	verr := AsError(err)
	if verr == nil || verr.Kind != KindNotFound {
		t.Fatalf("expected not_found error, got %v", err)
	}
}

func TestValidateCorrupt(t *testing.T) {
	engine := &fakeEngine{pages: 1, validateErr: errors.New("broken xref")}
	v := New(engine, 100, nil)

	err := v.Validate(tempPDF(t))
	verr := AsError(err)
	if verr == nil || verr.Kind != KindCorrupt {
		t.Fatalf("expected corrupt error, got %v", err)
	}
}

func TestValidateTooLarge(t *testing.T) {
	v := New(&fakeEngine{pages: 501}, 500, nil)

	err := v.Validate(tempPDF(t))
	verr := AsError(err)
	if verr == nil || verr.Kind != KindTooLarge {
		t.Fatalf("expected too_large error, got %v", err)
	}
}

func TestValidateRemovesProtection(t *testing.T) {
	engine := &fakeEngine{pages: 3, protected: true}
	v := New(engine, 100, nil)

	if err := v.Validate(tempPDF(t)); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if !engine.removeCalled {
		t.Error("expected RemoveProtection to be called")
	}
}

func TestValidateProtectionRemovalFailure(t *testing.T) {
	engine := &fakeEngine{pages: 3, protected: true, removeErr: errors.New("cannot decrypt")}
	v := New(engine, 100, nil)

	err := v.Validate(tempPDF(t))
	verr := AsError(err)
	if verr == nil || verr.Kind != KindCorrupt {
		t.Fatalf("expected corrupt error after failed protection removal, got %v", err)
	}
}

func TestValidateOK(t *testing.T) {
	v := New(&fakeEngine{pages: 10}, 0, nil)

	if err := v.Validate(tempPDF(t)); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}
