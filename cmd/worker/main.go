package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andrei/docscan/internal/annotate"
	"github.com/andrei/docscan/internal/api"
	"github.com/andrei/docscan/internal/config"
	"github.com/andrei/docscan/internal/jobsource"
	"github.com/andrei/docscan/internal/logger"
	"github.com/andrei/docscan/internal/nlp"
	"github.com/andrei/docscan/internal/ocr"
	"github.com/andrei/docscan/internal/pdfio"
	"github.com/andrei/docscan/internal/quality"
	"github.com/andrei/docscan/internal/repository"
	"github.com/andrei/docscan/internal/summarize"
	"github.com/andrei/docscan/internal/textclean"
	"github.com/andrei/docscan/internal/validator"
	"github.com/andrei/docscan/internal/vocab"
	"github.com/andrei/docscan/internal/worker"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "docscan-worker",
	})
	logger.SetDefaultLogger(appLogger)

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Rebuild the logger from configuration
	appLogger = logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "docscan-worker",
		Environment: cfg.Log.Environment,
		LogFile:     cfg.Log.File,
		LogFileOnly: cfg.Log.FileOnly,
		MaxSize:     100,
		MaxBackups:  7,
		MaxAge:      30,
		Compress:    true,
	})
	logger.SetDefaultLogger(appLogger)

	appLogger.WithFields(logger.Fields{
		logger.FieldWorkerID: cfg.Worker.ID,
		"version":            worker.Version,
		"job_source":         cfg.JobSource.BaseURL,
	}).Info("Starting OCR worker")

	if err := os.MkdirAll(cfg.Worker.OutputDir, 0755); err != nil {
		appLogger.WithError(err).Fatal("Failed to create output directory")
	}

	// Attempt journal
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	attemptRepo := repository.NewAttemptRepository(db)

	// Vocabulary and quality estimation
	vocabSet, err := vocab.Load(&vocab.Config{
		VocabPath:     cfg.Quality.VocabPath,
		WordlistPath:  cfg.Quality.WordlistPath,
		StopwordsPath: cfg.Quality.StopwordsPath,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load vocabulary")
	}
	appLogger.WithField("words", vocabSet.Len()).Info("Vocabulary loaded")
	estimator := quality.NewEstimator(vocabSet, appLogger)

	// PDF primitives and OCR
	pdfEngine := pdfio.NewFileEngine()
	cleaner := textclean.New(&textclean.Config{
		MinLineLength:     cfg.Cleaner.MinLineLength,
		MaxNumericPercent: cfg.Cleaner.MaxNumericPercent,
		MaxNonASCII:       cfg.Cleaner.MaxNonASCII,
	})
	docValidator := validator.New(pdfEngine, cfg.Worker.MaxPages, appLogger)
	runner := ocr.NewRunner(&ocr.Config{
		Binary:            cfg.OCR.Binary,
		Language:          cfg.OCR.Language,
		PDFAMaxPages:      cfg.OCR.PDFAMaxPages,
		RotationThreshold: cfg.OCR.RotationThreshold,
	}, pdfEngine, cleaner, appLogger)

	// Annotation
	nlpClient := nlp.NewClient(&nlp.ClientConfig{
		BaseURL: cfg.NLP.BaseURL,
		Model:   cfg.NLP.Model,
		Timeout: cfg.NLP.Timeout,
	})
	keywordIndex := annotate.NewIndex(&annotate.IndexConfig{
		SemanticEnabled:   cfg.Annotate.SemanticEnabled,
		SemanticThreshold: cfg.Annotate.SemanticThreshold,
		FuzzyMaxDistance:  cfg.Annotate.FuzzyMaxDistance,
	}, nlpClient, appLogger)
	annotator := annotate.NewEngine(&annotate.Config{
		EntitiesEnabled:  cfg.Annotate.EntitiesEnabled,
		FuzzyMaxDistance: cfg.Annotate.FuzzyMaxDistance,
	}, keywordIndex, pdfEngine, nlpClient, appLogger)

	// Job source and worker
	source := jobsource.NewClient(&jobsource.Config{
		BaseURL:    cfg.JobSource.BaseURL,
		Timeout:    cfg.JobSource.Timeout,
		RetryCount: cfg.JobSource.RetryCount,
	}, appLogger)
	w := worker.New(&worker.Config{
		ID:           cfg.Worker.ID,
		OutputDir:    cfg.Worker.OutputDir,
		PollInterval: cfg.Worker.PollInterval,
		MinScore:     cfg.Quality.MinScore,
		DumpText:     cfg.Worker.DumpText,
		DumpStats:    cfg.Worker.DumpStats,
	}, source, docValidator, runner, estimator, annotator,
		summarize.New(cfg.Summary.Sentences), attemptRepo, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Status endpoint
	var server *http.Server
	if cfg.Server.Enabled {
		router := api.SetupRouter(cfg.Worker.ID, worker.Version, cfg.Server.Mode, attemptRepo, appLogger)
		server = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: router,
		}
		go func() {
			appLogger.WithField("port", cfg.Server.Port).Info("Status endpoint listening")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLogger.WithError(err).Error("Status endpoint failed")
			}
		}()
	}

	// Stop on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLogger.WithField("signal", sig.String()).Info("Shutdown signal received")
		cancel()
	}()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		appLogger.WithError(err).Error("Worker loop exited")
	}

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLogger.WithError(err).Error("Status endpoint shutdown failed")
		}
	}

	_ = logger.Sync()
	appLogger.Info("Worker stopped")
}
