package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"unveildocs/internal/analysis"
	"unveildocs/internal/config"
	"unveildocs/internal/document"
	"unveildocs/internal/ocr"
	"unveildocs/internal/providers"
	"unveildocs/internal/retry"
	"unveildocs/internal/storage"
)

// App holds the components shared by the API server and the worker.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	OCR       *ocr.Tesseract
	Processor *document.Processor
	Models    *providers.Manager
	Service   *analysis.Service
	// Audit is nil when no Postgres URL is configured.
	Audit *storage.AnalysisAuditRepo

	db *storage.DB
}

type Options struct {
	// ServiceAudit makes the analysis service record every call itself.
	// The worker leaves it off and records from its own activity.
	ServiceAudit bool
}

func NewLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: l}))
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	if strings.TrimSpace(cfg.PostgresURL) != "" {
		dbCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		db, err := storage.NewDB(dbCtx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(dbCtx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		a.Audit = storage.NewAnalysisAuditRepo(db)
		logger.Info("app.audit.enabled")
	}

	a.OCR = ocr.NewTesseract(ocr.Config{
		Enabled:     cfg.OCREnabled,
		Pdftoppm:    cfg.OCRPdftoppm,
		Tesseract:   cfg.OCRTesseract,
		Lang:        cfg.OCRLang,
		DPI:         cfg.OCRDPI,
		Concurrency: cfg.OCRConcurrency,
		Logger:      logger,
	})
	a.Processor = document.NewProcessor(document.Config{
		MaxFileSize: cfg.MaxUpload,
		OCR:         a.OCR,
		Logger:      logger,
	})

	models, err := providers.NewManager(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Models = models

	scfg := analysis.Config{
		Model: models,
		Retry: retry.Policy{
			MaxAttempts: cfg.RetryAttempts,
			Base:        cfg.RetryBase,
			Cap:         cfg.RetryCap,
		},
		MaxDocumentChars: cfg.MaxDocumentChars,
		MaxQuestionChars: cfg.MaxQuestionChars,
		Logger:           logger,
	}
	if opts.ServiceAudit && a.Audit != nil {
		scfg.Recorder = a.Audit
	}
	svc, err := analysis.NewService(scfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("analysis service: %w", err)
	}
	a.Service = svc
	return a, nil
}

// Recorder returns the audit repo as a recorder, or nil when auditing is off.
func (a *App) Recorder() analysis.CallRecorder {
	if a.Audit == nil {
		return nil
	}
	return a.Audit
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
