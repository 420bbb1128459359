package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andrei/docscan/internal/domain"
	"github.com/andrei/docscan/internal/jobsource"
	"github.com/andrei/docscan/internal/logger"
	"github.com/andrei/docscan/internal/textclean"
)

// process runs the full pipeline for one claimed document: validate, OCR,
// score, annotate, report.
func (w *Worker) process(ctx context.Context, doc *domain.Document) {
	started := time.Now()
	log := logger.FromContext(ctx)
	log.WithField("path", doc.StoragePath).Info("Processing document")

	attempt := w.beginAttempt(ctx, doc, started)

	w.postStatus(ctx, doc, domain.StatusLocked, "")

	if err := w.validator.Validate(doc.StoragePath); err != nil {
		w.fail(ctx, doc, attempt, "validation failed: "+err.Error())
		return
	}

	w.postStatus(ctx, doc, domain.StatusOCRInProgress, "")

	ocrPath := w.derivedPath(doc.StoragePath, "ocr", "")
	text, quality, forcedRotate, cleanStats, err := w.runOCR(ctx, doc, ocrPath)
	if err != nil {
		w.fail(ctx, doc, attempt, "OCR failed: "+err.Error())
		return
	}
	if cleanStats != nil {
		w.cleanTotals.Add(cleanStats)
	}

	highlightPath := w.derivedPath(doc.StoragePath, "highlight", "")
	matches, stats, err := w.annotator.Highlight(ctx, ocrPath, highlightPath, doc.Keywords, doc.KeywordsHash)
	if err != nil {
		w.fail(ctx, doc, attempt, "annotation failed: "+err.Error())
		return
	}

	analysis := &domain.Analysis{
		WorkerVersion:     Version,
		InputFile:         doc.StoragePath,
		InputStatus:       doc.Status,
		OCRFile:           ocrPath,
		Text:              text,
		OCRQuality:        quality,
		KeywordsHash:      doc.KeywordsHash,
		HighlightFile:     highlightPath,
		HighlightMetadata: matches,
		Statistics:        stats,
		ProcessingTime:    time.Since(started).Seconds(),
	}
	w.dump(ctx, doc, analysis, cleanStats)

	log.WithFields(logger.Fields{
		logger.FieldQuality:    quality,
		logger.FieldPages:      stats.NumPages,
		"dropped_lines":        w.cleanTotals.DroppedLines(),
		logger.FieldDurationMs: time.Since(started).Milliseconds(),
	}).Info("Document processed")

	w.report(ctx, doc, analysis)
	w.endAttempt(ctx, attempt, domain.AttemptOutcomeDone, "", analysis, forcedRotate)
}

// runOCR executes OCR and scores the extracted text. When the score falls
// under the floor the document is OCR-ed once more with forced page
// rotation, and that second pass wins.
func (w *Worker) runOCR(ctx context.Context, doc *domain.Document, ocrPath string) (string, float64, bool, *textclean.Stats, error) {
	log := logger.FromContext(ctx)

	if err := w.runner.Run(ctx, doc.StoragePath, ocrPath, false); err != nil {
		return "", 0, false, nil, err
	}
	text, cleanStats, err := w.runner.ExtractText(ocrPath)
	if err != nil {
		return "", 0, false, nil, err
	}
	score := w.estimator.Estimate(text)

	if score >= w.cfg.MinScore {
		return text, score, false, cleanStats, nil
	}

	log.WithField(logger.FieldQuality, score).Info("Forcing page rotation")
	if err := w.runner.Run(ctx, doc.StoragePath, ocrPath, true); err != nil {
		return "", 0, false, nil, err
	}
	text, cleanStats, err = w.runner.ExtractText(ocrPath)
	if err != nil {
		return "", 0, false, nil, err
	}
	return text, w.estimator.Estimate(text), true, cleanStats, nil
}

// report posts the finished analysis. On an HTTP error status the payload is
// assumed too large and retried once with the text replaced by an extractive
// summary; a second failure is logged and swallowed so the worker moves on.
func (w *Worker) report(ctx context.Context, doc *domain.Document, analysis *domain.Analysis) {
	log := logger.FromContext(ctx)
	update := &jobsource.Update{
		WorkerID: w.cfg.ID,
		ID:       doc.ID,
		Status:   domain.StatusOCRDone,
		Analysis: analysis,
	}

	err := w.source.PostUpdate(ctx, update)
	if err == nil {
		return
	}

	var statusErr *jobsource.StatusError
	if !errors.As(err, &statusErr) {
		log.WithError(err).Error("Failed to report analysis")
		return
	}

	log.WithError(err).Warn("Report rejected, retrying with summarized text")
	degraded := *analysis
	degraded.Text = w.summarizer.Summarize(analysis.Text)
	update.Analysis = &degraded

	if err := w.source.PostUpdate(ctx, update); err != nil {
		log.WithError(err).Error("Failed to report summarized analysis")
	}
}

// fail reports a failed attempt to the job source and closes the journal
// record.
func (w *Worker) fail(ctx context.Context, doc *domain.Document, attempt *domain.Attempt, message string) {
	logger.FromContext(ctx).Error(message)
	w.postStatus(ctx, doc, domain.StatusFailed, message)
	w.endAttempt(ctx, attempt, domain.AttemptOutcomeFailed, message, nil, false)
}

// dump optionally writes the extracted text and statistics next to the
// other derived files. Dump failures are logged, never fatal.
func (w *Worker) dump(ctx context.Context, doc *domain.Document, analysis *domain.Analysis, cleanStats *textclean.Stats) {
	log := logger.FromContext(ctx)

	if w.cfg.DumpText {
		path := w.derivedPath(doc.StoragePath, "ocr", "txt")
		if err := os.WriteFile(path, []byte(analysis.Text), 0644); err != nil {
			log.WithError(err).Warn("Failed to dump text")
		} else {
			analysis.TextFile = path
		}
	}

	if w.cfg.DumpStats {
		path := w.derivedPath(doc.StoragePath, "stats", "json")
		payload := struct {
			Statistics domain.Statistics `json:"statistics"`
			Cleaner    *textclean.Stats  `json:"cleaner,omitempty"`
		}{analysis.Statistics, cleanStats}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err == nil {
			err = os.WriteFile(path, data, 0644)
		}
		if err != nil {
			log.WithError(err).Warn("Failed to dump statistics")
		}
	}
}

// derivedPath builds "{stem}_{suffix}.{ext}" for a derived file, placed in
// the output directory when one is configured, next to the input otherwise.
// An empty ext keeps the input's extension.
func (w *Worker) derivedPath(inputPath, suffix, ext string) string {
	base := filepath.Base(inputPath)
	inExt := filepath.Ext(base)
	stem := strings.TrimSuffix(base, inExt)
	if ext == "" {
		ext = strings.TrimPrefix(inExt, ".")
	}
	name := stem + "_" + suffix + "." + ext

	dir := w.cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	return filepath.Join(dir, name)
}

// beginAttempt opens a journal record, best effort.
func (w *Worker) beginAttempt(ctx context.Context, doc *domain.Document, started time.Time) *domain.Attempt {
	if w.journal == nil {
		return nil
	}
	attempt := &domain.Attempt{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		WorkerID:   w.cfg.ID,
		StartedAt:  started,
	}
	if err := w.journal.Create(ctx, attempt); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Failed to journal attempt")
		return nil
	}
	return attempt
}

// endAttempt closes a journal record, best effort.
func (w *Worker) endAttempt(ctx context.Context, attempt *domain.Attempt, outcome domain.AttemptOutcome, errMsg string, analysis *domain.Analysis, forcedRotate bool) {
	if attempt == nil {
		return
	}
	now := time.Now()
	attempt.Outcome = outcome
	attempt.Error = errMsg
	attempt.ForcedRotate = forcedRotate
	attempt.CompletedAt = &now
	attempt.DurationMs = now.Sub(attempt.StartedAt).Milliseconds()
	if analysis != nil {
		attempt.Quality = analysis.OCRQuality
		attempt.NumPages = analysis.Statistics.NumPages
		attempt.NumKwds = analysis.Statistics.NumKwds
	}
	if err := w.journal.Update(ctx, attempt); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Failed to journal attempt outcome")
	}
}
