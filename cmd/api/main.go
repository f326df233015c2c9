package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"unveildocs/internal/api"
	"unveildocs/internal/app"
	"unveildocs/internal/config"

	"github.com/joho/godotenv"
	tclient "go.temporal.io/sdk/client"
)

func main() {
	_ = godotenv.Load(".env")
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config.load_failed", "error", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{ServiceAudit: true})
	if err != nil {
		logger.Error("app.init_failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	deps := api.Deps{
		Processor:    a.Processor,
		Service:      a.Service,
		ModelName:    a.Models.Ref().Raw,
		OCRAvailable: a.OCR.Available(),
		Logger:       logger,
	}
	// Batch endpoints stay disabled when Temporal is unreachable.
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress, Logger: logger})
	if err != nil {
		logger.Warn("api.temporal_unavailable", "address", cfg.TemporalAddress, "error", err)
	} else {
		defer tc.Close()
		deps.Temporal = tc
	}

	srv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           api.NewServer(cfg, deps).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api.listening", "addr", cfg.APIAddr, "model", a.Models.Ref().Raw, "demo_mode", cfg.DemoMode, "ocr", a.OCR.Available())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("api.serve_failed", "error", err)
		os.Exit(1)
	}
}
