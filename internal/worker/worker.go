// Package worker drives the document lifecycle: it polls the job source,
// claims documents, runs the OCR and annotation pipeline, and reports
// results back.
package worker

import (
	"context"
	"time"

	"github.com/andrei/docscan/internal/domain"
	"github.com/andrei/docscan/internal/jobsource"
	"github.com/andrei/docscan/internal/logger"
	"github.com/andrei/docscan/internal/textclean"
)

// Version is reported in every analysis payload so downstream consumers can
// tell which worker build produced a result.
const Version = "2.3.0"

// JobSource hands out documents and owns their lifecycle status.
type JobSource interface {
	NextDocument(ctx context.Context) (*domain.Document, error)
	PostUpdate(ctx context.Context, update *jobsource.Update) error
}

// Validator vets a document before OCR.
type Validator interface {
	Validate(path string) error
}

// OCRRunner performs OCR and extracts the cleaned text layer.
type OCRRunner interface {
	Run(ctx context.Context, in, out string, forceRotate bool) error
	ExtractText(path string) (string, *textclean.Stats, error)
}

// QualityEstimator scores extracted text.
type QualityEstimator interface {
	Estimate(text string) float64
}

// Annotator highlights keywords and entities on the OCR-ed copy.
type Annotator interface {
	Highlight(ctx context.Context, pdfPath, outPath string, keywords []domain.Keyword, hash string) ([]domain.KeywordMatch, domain.Statistics, error)
}

// Summarizer shrinks oversized result payloads.
type Summarizer interface {
	Summarize(text string) string
}

// Journal records processing attempts locally, best effort.
type Journal interface {
	Create(ctx context.Context, attempt *domain.Attempt) error
	Update(ctx context.Context, attempt *domain.Attempt) error
}

// Config controls the worker loop and output layout.
type Config struct {
	ID           string
	OutputDir    string
	PollInterval time.Duration
	MinScore     float64
	DumpText     bool
	DumpStats    bool
}

// Worker is the poll-and-process loop.
type Worker struct {
	cfg        *Config
	source     JobSource
	validator  Validator
	runner     OCRRunner
	estimator  QualityEstimator
	annotator  Annotator
	summarizer Summarizer
	journal    Journal
	log        *logger.Logger

	// lastUnknown remembers the last unrecognized status seen per document
	// so repeated polls do not flood the log.
	lastUnknown map[string]domain.Status
	// cleanTotals accumulates line-cleaner rejection counters across every
	// document this worker has processed.
	cleanTotals textclean.Stats
	// idleLogged suppresses the no-work message until work shows up again.
	idleLogged bool

	sleep func(ctx context.Context, d time.Duration)
}

// New creates a worker.
// Parameters:
//   - cfg: worker configuration.
//   - source: job source client.
//   - validator: pre-OCR document vetting.
//   - runner: OCR execution and text extraction.
//   - estimator: text quality scoring.
//   - annotator: keyword and entity annotation.
//   - summarizer: degraded-payload summarization.
//   - journal: local attempt journal; nil disables journaling.
//   - log: structured logger.
// Returns:
//   - *Worker: ready-to-run worker.
func New(cfg *Config, source JobSource, validator Validator, runner OCRRunner,
	estimator QualityEstimator, annotator Annotator, summarizer Summarizer,
	journal Journal, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.GetDefault()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	return &Worker{
		cfg:         cfg,
		source:      source,
		validator:   validator,
		runner:      runner,
		estimator:   estimator,
		annotator:   annotator,
		summarizer:  summarizer,
		journal:     journal,
		log:         log,
		lastUnknown: make(map[string]domain.Status),
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run polls the job source until ctx is canceled.
// Parameters:
//   - ctx: context; cancellation stops the loop after the current document.
// Returns:
//   - error: ctx.Err() once the loop stops.
func (w *Worker) Run(ctx context.Context) error {
	w.log.WithFields(logger.Fields{
		logger.FieldWorkerID: w.cfg.ID,
		"poll_interval":      w.cfg.PollInterval.String(),
	}).Info("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker stopping")
			return ctx.Err()
		default:
		}

		doc, err := w.source.NextDocument(ctx)
		if err != nil {
			w.log.WithError(err).Error("Failed to fetch next document")
			w.sleep(ctx, w.cfg.PollInterval)
			continue
		}

		if w.Dispatch(ctx, doc) {
			w.sleep(ctx, w.cfg.PollInterval)
		}
	}
}

// Dispatch routes one document descriptor by status. It returns true when
// the loop should sleep before the next poll.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - doc: document descriptor from the job source.
// Returns:
//   - bool: true to sleep before polling again.
func (w *Worker) Dispatch(ctx context.Context, doc *domain.Document) bool {
	if doc == nil || doc.ID == "" || doc.Status == domain.StatusNotFound {
		if !w.idleLogged {
			w.idleLogged = true
			w.log.Info("No documents to process")
		}
		return true
	}
	w.idleLogged = false

	ctx = logger.SetDocumentID(ctx, doc.ID)
	log := logger.FromContext(ctx)

	// An unrecognized status means no work for this worker. Log the
	// transition once and leave the descriptor alone.
	if !doc.Status.Known() {
		if w.lastUnknown[doc.ID] != doc.Status {
			w.lastUnknown[doc.ID] = doc.Status
			log.WithField(logger.FieldStatus, string(doc.Status)).
				Error("Unrecognized document status")
		}
		return true
	}
	delete(w.lastUnknown, doc.ID)

	switch doc.Status {
	case domain.StatusDownloaded:
		w.process(ctx, doc)
		return false

	case domain.StatusOCRDone:
		if doc.Force {
			log.Info("Forcing reprocessing of a finished document")
			w.process(ctx, doc)
			return false
		}
		log.Warn("Document already processed, force required to redo")
		w.postStatus(ctx, doc, domain.StatusFailed, "document already processed, set force to redo")
		return true

	case domain.StatusLocked, domain.StatusOCRInProgress:
		log.WithField(logger.FieldStatus, string(doc.Status)).
			Warn("Document is claimed by another worker")
		w.postStatus(ctx, doc, domain.StatusFailed, "document already claimed")
		return true
	}

	// Terminal ocr_failed descriptors carry no work.
	log.Debug("Document attempt already failed, skipping")
	return true
}

// postStatus posts a bare status transition, logging failures instead of
// propagating them.
func (w *Worker) postStatus(ctx context.Context, doc *domain.Document, status domain.Status, message string) {
	err := w.source.PostUpdate(ctx, &jobsource.Update{
		WorkerID: w.cfg.ID,
		ID:       doc.ID,
		Status:   status,
		Message:  message,
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("Failed to post status update")
	}
}
