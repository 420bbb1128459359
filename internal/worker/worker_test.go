package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andrei/docscan/internal/domain"
	"github.com/andrei/docscan/internal/jobsource"
	"github.com/andrei/docscan/internal/textclean"
	"github.com/andrei/docscan/internal/validator"
)

type fakeSource struct {
	updates     []jobsource.Update
	failUpdates int // fail the first N PostUpdate calls with a StatusError
}

func (f *fakeSource) NextDocument(context.Context) (*domain.Document, error) { return nil, nil }
func (f *fakeSource) PostUpdate(_ context.Context, u *jobsource.Update) error {
	f.updates = append(f.updates, *u)
	if f.failUpdates > 0 {
		f.failUpdates--
		return &jobsource.StatusError{StatusCode: 413, Body: "payload too large"}
	}
	return nil
}

func (f *fakeSource) byStatus(status domain.Status) []jobsource.Update {
	var out []jobsource.Update
	for _, u := range f.updates {
		if u.Status == status {
			out = append(out, u)
		}
	}
	return out
}

type fakeValidator struct{ err error }

func (f *fakeValidator) Validate(string) error { return f.err }

type fakeRunner struct {
	runs       []bool // forceRotate flag per Run call
	texts      []string
	runErr     error
	extracts   int
	cleanStats textclean.Stats // returned by every ExtractText call
}

func (f *fakeRunner) Run(_ context.Context, _, _ string, forceRotate bool) error {
	f.runs = append(f.runs, forceRotate)
	return f.runErr
}

func (f *fakeRunner) ExtractText(string) (string, *textclean.Stats, error) {
	i := f.extracts
	f.extracts++
	if i >= len(f.texts) {
		i = len(f.texts) - 1
	}
	stats := f.cleanStats
	return f.texts[i], &stats, nil
}

type fakeEstimator struct {
	scores map[string]float64
}

func (f *fakeEstimator) Estimate(text string) float64 { return f.scores[text] }

type fakeAnnotator struct {
	matches []domain.KeywordMatch
	stats   domain.Statistics
	err     error
	calls   int
}

func (f *fakeAnnotator) Highlight(_ context.Context, _, _ string, _ []domain.Keyword, _ string) ([]domain.KeywordMatch, domain.Statistics, error) {
	f.calls++
	return f.matches, f.stats, f.err
}

type fakeSummarizer struct{ called bool }

func (f *fakeSummarizer) Summarize(string) string {
	f.called = true
	return "summary"
}

type fakeJournal struct {
	created []domain.Attempt
	updated []domain.Attempt
}

func (f *fakeJournal) Create(_ context.Context, a *domain.Attempt) error {
	f.created = append(f.created, *a)
	return nil
}

func (f *fakeJournal) Update(_ context.Context, a *domain.Attempt) error {
	f.updated = append(f.updated, *a)
	return nil
}

type fixture struct {
	w          *Worker
	source     *fakeSource
	validator  *fakeValidator
	runner     *fakeRunner
	estimator  *fakeEstimator
	annotator  *fakeAnnotator
	summarizer *fakeSummarizer
	journal    *fakeJournal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		source:     &fakeSource{},
		validator:  &fakeValidator{},
		runner:     &fakeRunner{texts: []string{"good text"}},
		estimator:  &fakeEstimator{scores: map[string]float64{"good text": 90}},
		annotator:  &fakeAnnotator{stats: domain.Statistics{NumPages: 3, NumKwds: 2}},
		summarizer: &fakeSummarizer{},
		journal:    &fakeJournal{},
	}
	f.w = New(&Config{
		ID:           "w1",
		OutputDir:    t.TempDir(),
		PollInterval: time.Millisecond,
		MinScore:     60,
	}, f.source, f.validator, f.runner, f.estimator, f.annotator, f.summarizer, f.journal, nil)
	return f
}

func doc(status domain.Status) *domain.Document {
	return &domain.Document{
		ID:           "doc-1",
		StoragePath:  "/data/in/contract.pdf",
		Status:       status,
		Keywords:     []domain.Keyword{{Name: "contract"}},
		KeywordsHash: "h1",
	}
}

func TestDispatchProcessesDownloadedDocument(t *testing.T) {
	f := newFixture(t)
	f.w.Dispatch(context.Background(), doc(domain.StatusDownloaded))

	if got := f.source.byStatus(domain.StatusLocked); len(got) != 1 {
		t.Fatalf("locked updates = %d, want 1", len(got))
	}
	if got := f.source.byStatus(domain.StatusOCRInProgress); len(got) != 1 {
		t.Fatalf("ocr_in_progress updates = %d, want 1", len(got))
	}
	done := f.source.byStatus(domain.StatusOCRDone)
	if len(done) != 1 {
		t.Fatalf("ocr_done updates = %d, want 1", len(done))
	}

	a := done[0].Analysis
	if a == nil {
		t.Fatal("expected analysis payload on ocr_done")
	}
	if a.WorkerVersion != Version {
		t.Fatalf("WorkerVersion = %q, want %q", a.WorkerVersion, Version)
	}
	if a.Text != "good text" || a.OCRQuality != 90 {
		t.Fatalf("text/quality = %q/%v", a.Text, a.OCRQuality)
	}
	if a.Statistics.NumPages != 3 {
		t.Fatalf("NumPages = %d, want 3", a.Statistics.NumPages)
	}
	if a.InputStatus != domain.StatusDownloaded {
		t.Fatalf("InputStatus = %q", a.InputStatus)
	}
	if a.ProcessingTime < 0 {
		t.Fatalf("ProcessingTime = %v", a.ProcessingTime)
	}
	if filepath.Base(a.OCRFile) != "contract_ocr.pdf" {
		t.Fatalf("OCRFile = %q, want contract_ocr.pdf basename", a.OCRFile)
	}
	if filepath.Base(a.HighlightFile) != "contract_highlight.pdf" {
		t.Fatalf("HighlightFile = %q", a.HighlightFile)
	}

	if len(f.runner.runs) != 1 || f.runner.runs[0] {
		t.Fatalf("runner runs = %v, want one non-rotated pass", f.runner.runs)
	}
	if len(f.journal.updated) != 1 || f.journal.updated[0].Outcome != domain.AttemptOutcomeDone {
		t.Fatalf("journal updates = %+v", f.journal.updated)
	}
}

func TestLowQualityTriggersSingleRotatedRerun(t *testing.T) {
	f := newFixture(t)
	f.runner.texts = []string{"bad text", "better text"}
	f.estimator.scores = map[string]float64{"bad text": 20, "better text": 45}

	f.w.Dispatch(context.Background(), doc(domain.StatusDownloaded))

	if len(f.runner.runs) != 2 || f.runner.runs[0] || !f.runner.runs[1] {
		t.Fatalf("runner runs = %v, want plain then rotated", f.runner.runs)
	}

	done := f.source.byStatus(domain.StatusOCRDone)
	if len(done) != 1 {
		t.Fatalf("ocr_done updates = %d, want 1", len(done))
	}
	// The rotated pass wins even when still under the floor.
	if done[0].Analysis.Text != "better text" || done[0].Analysis.OCRQuality != 45 {
		t.Fatalf("analysis = %q/%v, want the rerun result", done[0].Analysis.Text, done[0].Analysis.OCRQuality)
	}
	if len(f.journal.updated) != 1 || !f.journal.updated[0].ForcedRotate {
		t.Fatalf("journal should record the forced rotation: %+v", f.journal.updated)
	}
}

func TestMissingFileReportsFailure(t *testing.T) {
	f := newFixture(t)
	f.validator.err = &validator.Error{Kind: validator.KindNotFound, Path: "/data/in/contract.pdf"}

	f.w.Dispatch(context.Background(), doc(domain.StatusDownloaded))

	failed := f.source.byStatus(domain.StatusFailed)
	if len(failed) != 1 {
		t.Fatalf("ocr_failed updates = %d, want 1", len(failed))
	}
	if failed[0].Message == "" {
		t.Fatal("failure update should carry a message")
	}
	if got := f.source.byStatus(domain.StatusNotFound); len(got) != 0 {
		t.Fatalf("unexpected not_found updates: %+v", got)
	}
	if f.annotator.calls != 0 {
		t.Fatal("annotator should not run for a missing file")
	}
	if len(f.journal.updated) != 1 || f.journal.updated[0].Outcome != domain.AttemptOutcomeFailed {
		t.Fatalf("journal updates = %+v", f.journal.updated)
	}
}

func TestCorruptFileReportsFailure(t *testing.T) {
	f := newFixture(t)
	f.validator.err = &validator.Error{
		Kind: validator.KindCorrupt,
		Path: "/data/in/contract.pdf",
		Err:  errors.New("xref broken"),
	}

	f.w.Dispatch(context.Background(), doc(domain.StatusDownloaded))

	failed := f.source.byStatus(domain.StatusFailed)
	if len(failed) != 1 {
		t.Fatalf("ocr_failed updates = %d, want 1", len(failed))
	}
	if failed[0].Message == "" {
		t.Fatal("failure update should carry a message")
	}
	if len(f.journal.updated) != 1 || f.journal.updated[0].Outcome != domain.AttemptOutcomeFailed {
		t.Fatalf("journal updates = %+v", f.journal.updated)
	}
}

func TestOCRFailureReportsFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.runErr = errors.New("ocrmypdf exited 2")

	f.w.Dispatch(context.Background(), doc(domain.StatusDownloaded))

	if got := f.source.byStatus(domain.StatusFailed); len(got) != 1 {
		t.Fatalf("ocr_failed updates = %d, want 1", len(got))
	}
	if f.annotator.calls != 0 {
		t.Fatal("annotator should not run after OCR failure")
	}
}

func TestFinishedDocumentRejectedWithoutForce(t *testing.T) {
	f := newFixture(t)
	if !f.w.Dispatch(context.Background(), doc(domain.StatusOCRDone)) {
		t.Fatal("expected sleep signal for a finished document")
	}
	failed := f.source.byStatus(domain.StatusFailed)
	if len(failed) != 1 {
		t.Fatalf("ocr_failed updates = %d, want 1", len(failed))
	}
	if failed[0].Message == "" {
		t.Fatal("rejection should explain that force is required")
	}
}

func TestForceReprocessesFinishedDocument(t *testing.T) {
	f := newFixture(t)
	d := doc(domain.StatusOCRDone)
	d.Force = true

	f.w.Dispatch(context.Background(), d)

	done := f.source.byStatus(domain.StatusOCRDone)
	if len(done) != 1 {
		t.Fatalf("ocr_done updates = %d, want 1", len(done))
	}
	if done[0].Analysis.InputStatus != domain.StatusOCRDone {
		t.Fatalf("InputStatus = %q, want ocr_done", done[0].Analysis.InputStatus)
	}
}

func TestClaimedDocumentReportedAsFailed(t *testing.T) {
	f := newFixture(t)
	for _, status := range []domain.Status{domain.StatusLocked, domain.StatusOCRInProgress} {
		f.source.updates = nil
		if !f.w.Dispatch(context.Background(), doc(status)) {
			t.Fatalf("expected sleep signal for status %q", status)
		}
		failed := f.source.byStatus(domain.StatusFailed)
		if len(failed) != 1 {
			t.Fatalf("status %q: ocr_failed updates = %d, want 1", status, len(failed))
		}
	}
}

func TestUnknownStatusSleepsWithoutUpdate(t *testing.T) {
	f := newFixture(t)
	d := doc(domain.Status("archived"))

	if !f.w.Dispatch(context.Background(), d) {
		t.Fatal("unknown status should signal a sleep before the next poll")
	}
	f.w.Dispatch(context.Background(), d)

	if len(f.source.updates) != 0 {
		t.Fatalf("updates posted = %d, want 0: %+v", len(f.source.updates), f.source.updates)
	}
}

func TestReportRetriesWithSummaryOnRejection(t *testing.T) {
	f := newFixture(t)

	// The first ocr_done post is rejected; the retry with summarized text
	// must succeed.
	a := &domain.Analysis{Text: "full text"}
	f.source.failUpdates = 1
	f.w.report(context.Background(), doc(domain.StatusDownloaded), a)

	done := f.source.byStatus(domain.StatusOCRDone)
	if len(done) != 2 {
		t.Fatalf("ocr_done posts = %d, want original plus retry", len(done))
	}
	if !f.summarizer.called {
		t.Fatal("summarizer should run on a rejected report")
	}
	if done[1].Analysis.Text != "summary" {
		t.Fatalf("retry text = %q, want summary", done[1].Analysis.Text)
	}
	if a.Text != "full text" {
		t.Fatal("original analysis must not be mutated by the degraded retry")
	}
}

func TestReportSwallowsSecondRejection(t *testing.T) {
	f := newFixture(t)
	f.source.failUpdates = 2

	f.w.report(context.Background(), doc(domain.StatusDownloaded), &domain.Analysis{Text: "full text"})

	if got := f.source.byStatus(domain.StatusOCRDone); len(got) != 2 {
		t.Fatalf("ocr_done posts = %d, want 2", len(got))
	}
}

func TestDerivedPathUsesOutputDir(t *testing.T) {
	f := newFixture(t)
	got := f.w.derivedPath("/data/in/deed.pdf", "highlight", "")
	if filepath.Base(got) != "deed_highlight.pdf" {
		t.Fatalf("derivedPath = %q", got)
	}
	if filepath.Dir(got) == "/data/in" {
		t.Fatal("derived file should land in the output directory")
	}

	got = f.w.derivedPath("/data/in/deed.pdf", "stats", "json")
	if filepath.Base(got) != "deed_stats.json" {
		t.Fatalf("derivedPath = %q", got)
	}
}

func TestDerivedPathFallsBackToInputDir(t *testing.T) {
	f := newFixture(t)
	f.w.cfg.OutputDir = ""
	got := f.w.derivedPath("/data/in/deed.pdf", "ocr", "")
	if got != "/data/in/deed_ocr.pdf" {
		t.Fatalf("derivedPath = %q, want /data/in/deed_ocr.pdf", got)
	}
}

func TestCleanerStatsAccumulateAndDump(t *testing.T) {
	f := newFixture(t)
	f.w.cfg.DumpStats = true
	f.runner.cleanStats = textclean.Stats{
		SkippedMinLength:    [2]uint64{2, 10},
		SkippedAlphaCount:   [2]uint64{1, 7},
		TotalOriginalLength: 100,
		TotalCleanLength:    83,
	}

	f.w.Dispatch(context.Background(), doc(domain.StatusDownloaded))
	f.w.Dispatch(context.Background(), doc(domain.StatusDownloaded))

	if got := f.w.cleanTotals.DroppedLines(); got != 6 {
		t.Fatalf("accumulated dropped lines = %d, want 6", got)
	}
	if got := f.w.cleanTotals.TotalOriginalLength; got != 200 {
		t.Fatalf("accumulated original length = %d, want 200", got)
	}

	data, err := os.ReadFile(filepath.Join(f.w.cfg.OutputDir, "contract_stats.json"))
	if err != nil {
		t.Fatalf("reading stats dump: %v", err)
	}
	var dumped struct {
		Statistics domain.Statistics `json:"statistics"`
		Cleaner    *textclean.Stats  `json:"cleaner"`
	}
	if err := json.Unmarshal(data, &dumped); err != nil {
		t.Fatalf("decoding stats dump: %v", err)
	}
	if dumped.Cleaner == nil {
		t.Fatal("stats dump should include cleaner counters")
	}
	if dumped.Cleaner.SkippedMinLength != [2]uint64{2, 10} {
		t.Fatalf("dumped SkippedMinLength = %v", dumped.Cleaner.SkippedMinLength)
	}
	if dumped.Statistics.NumPages != 3 {
		t.Fatalf("dumped NumPages = %d, want 3", dumped.Statistics.NumPages)
	}
}
