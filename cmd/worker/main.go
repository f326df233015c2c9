package main

import (
	"context"
	"log/slog"
	"os"

	"unveildocs/internal/activities"
	"unveildocs/internal/app"
	"unveildocs/internal/config"
	"unveildocs/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
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

	a, err := app.New(context.Background(), cfg, logger, app.Options{})
	if err != nil {
		logger.Error("app.init_failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress, Logger: logger})
	if err != nil {
		logger.Error("worker.dial_failed", "address", cfg.TemporalAddress, "error", err)
		os.Exit(1)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	activities.Register(w, activities.New(cfg.BatchOutputDir, a.Processor, a.Service, a.Recorder(), logger))

	logger.Info("worker.listening", "address", cfg.TemporalAddress, "queue", cfg.TemporalTaskQueue, "model", a.Models.Ref().Raw)
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("worker.run_failed", "error", err)
		os.Exit(1)
	}
}
