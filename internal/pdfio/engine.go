package pdfio

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ajroetker/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/color"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/andrei/docscan/internal/domain"
)

// wordGapFactor times the font size is the horizontal gap that splits two
// text runs into separate words.
const wordGapFactor = 0.3

// lineTolerance is the vertical distance in points within which two text
// runs belong to the same line.
const lineTolerance = 2.0

// FileEngine implements Engine over files on disk.
type FileEngine struct {
	conf *model.Configuration
}

// NewFileEngine creates the production PDF engine.
// Parameters: none.
// Returns:
//   - *FileEngine: initialized engine.
func NewFileEngine() *FileEngine {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &FileEngine{conf: conf}
}

// PageCount returns the number of pages of the document at path.
func (e *FileEngine) PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages of %s: %w", path, err)
	}
	return n, nil
}

// Validate checks the document's structural validity.
func (e *FileEngine) Validate(path string) error {
	if err := api.ValidateFile(path, e.conf); err != nil {
		return fmt.Errorf("invalid pdf %s: %w", path, err)
	}
	return nil
}

// IsProtected reports whether the document carries an encryption layer.
func (e *FileEngine) IsProtected(path string) (bool, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		// An unreadable encrypted file surfaces here too.
		if strings.Contains(err.Error(), "encrypt") {
			return true, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ctx.XRefTable.Encrypt != nil, nil
}

// RemoveProtection rewrites path in place without its encryption layer.
func (e *FileEngine) RemoveProtection(path string) error {
	if err := api.DecryptFile(path, "", e.conf); err != nil {
		return fmt.Errorf("failed to remove protection from %s: %w", path, err)
	}
	return nil
}

// ExtractText returns the document text, text blocks per page joined with
// newlines.
func (e *FileEngine) ExtractText(path string) (string, error) {
	pages, err := e.readPages(path, true)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, p := range pages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.text)
	}
	return b.String(), nil
}

// Pages returns per-page words with bounding rectangles.
func (e *FileEngine) Pages(path string) ([]Page, error) {
	raw, err := e.readPages(path, false)
	if err != nil {
		return nil, err
	}
	pages := make([]Page, len(raw))
	for i, p := range raw {
		pages[i] = Page{Number: i, Words: p.words}
	}
	return pages, nil
}

type rawPage struct {
	text  string
	words []Word
}

func (e *FileEngine) readPages(path string, wantText bool) ([]rawPage, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	pages := make([]rawPage, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, rawPage{})
			continue
		}
		texts := p.Content().Text
		words := assembleWords(texts)
		rp := rawPage{words: words}
		if wantText {
			rp.text = joinLines(words)
		}
		pages = append(pages, rp)
	}
	return pages, nil
}

// assembleWords groups character/run-level text items into words. Items are
// sorted top-to-bottom then left-to-right; a new word starts on a line break,
// a whitespace run, or a horizontal gap wider than wordGapFactor*fontSize.
func assembleWords(texts []pdf.Text) []Word {
	if len(texts) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Y-sorted[j].Y) > lineTolerance {
			return sorted[i].Y > sorted[j].Y // PDF y grows upward
		}
		return sorted[i].X < sorted[j].X
	})

	var words []Word
	var cur strings.Builder
	var rect domain.Rect
	var prev *pdf.Text

	flush := func() {
		if cur.Len() == 0 {
			return
		}
		if s := strings.TrimSpace(cur.String()); s != "" {
			words = append(words, Word{Text: s, Rect: rect})
		}
		cur.Reset()
	}

	for i := range sorted {
		t := sorted[i]
		if strings.TrimSpace(t.S) == "" {
			flush()
			prev = &sorted[i]
			continue
		}
		newLine := prev != nil && math.Abs(t.Y-prev.Y) > lineTolerance
		gap := prev != nil && !newLine && t.X-(prev.X+prev.W) > wordGapFactor*maxFontSize(t, *prev)
		if newLine || gap {
			flush()
		}
		if cur.Len() == 0 {
			rect = domain.Rect{X1: t.X, X2: t.X + t.W, Y1: t.Y, Y2: t.Y + t.FontSize}
		} else {
			rect.X2 = t.X + t.W
			if t.Y+t.FontSize > rect.Y2 {
				rect.Y2 = t.Y + t.FontSize
			}
			if t.Y < rect.Y1 {
				rect.Y1 = t.Y
			}
		}
		cur.WriteString(t.S)
		prev = &sorted[i]
	}
	flush()
	return words
}

func maxFontSize(a, b pdf.Text) float64 {
	if a.FontSize > b.FontSize {
		return a.FontSize
	}
	if b.FontSize > 0 {
		return b.FontSize
	}
	return 10 // fall back to a typical body size when the font reports none
}

// joinLines renders words back into line-oriented text blocks.
func joinLines(words []Word) string {
	var b strings.Builder
	var prevY float64
	for i, w := range words {
		if i > 0 {
			if math.Abs(w.Rect.Y1-prevY) > lineTolerance {
				b.WriteString("\n")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(w.Text)
		prevY = w.Rect.Y1
	}
	return b.String()
}

// WriteMarks copies the document to outPath and draws the marks. Keyword and
// semantic marks render as highlight annotations in different tints; entity
// marks render as underlines.
func (e *FileEngine) WriteMarks(path, outPath string, marks []Mark) error {
	if err := copyFile(path, outPath); err != nil {
		return err
	}

	byPage := map[int][]model.AnnotationRenderer{}
	for _, m := range marks {
		byPage[m.Page] = append(byPage[m.Page], annotationFor(m))
	}

	for page, anns := range byPage {
		pages := []string{strconv.Itoa(page + 1)}
		for _, ann := range anns {
			if err := api.AddAnnotationsFile(outPath, "", pages, ann, e.conf, false); err != nil {
				return fmt.Errorf("failed to annotate page %d of %s: %w", page+1, outPath, err)
			}
		}
	}
	return nil
}

func annotationFor(m Mark) model.AnnotationRenderer {
	r := types.NewRectangle(m.Rect.X1, m.Rect.Y1, m.Rect.X2, m.Rect.Y2)
	quad := types.QuadPoints{types.QuadLiteral{
		P1: types.Point{X: r.LL.X, Y: r.LL.Y},
		P2: types.Point{X: r.UR.X, Y: r.LL.Y},
		P3: types.Point{X: r.UR.X, Y: r.UR.Y},
		P4: types.Point{X: r.LL.X, Y: r.UR.Y},
	}}

	switch m.Kind {
	case MarkEntity:
		col := color.SimpleColor{R: 0.20, G: 0.35, B: 0.80}
		return model.NewUnderlineAnnotation(*r, 0, "", "", "", 0, &col, 0, 0, 0, "", nil, nil, "", "", quad)
	case MarkSemantic:
		col := color.SimpleColor{R: 0.65, G: 0.90, B: 0.65}
		return model.NewHighlightAnnotation(*r, 0, "", "", "", 0, &col, 0, 0, 0, "", nil, nil, "", "", quad)
	default:
		col := color.SimpleColor{R: 1, G: 0.85, B: 0.25}
		return model.NewHighlightAnnotation(*r, 0, "", "", "", 0, &col, 0, 0, 0, "", nil, nil, "", "", quad)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Sync()
}
