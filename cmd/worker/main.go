package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"livevote/internal/app/bootstrap"
	"livevote/internal/platform/config"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Relay the postgres vote outbox to the event bus.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "event", "worker_config_failed", "error", err.Error())
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildWorker(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap worker failed", "event", "worker_bootstrap_failed", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("worker shutdown close failed", "event", "worker_close_failed", "error", err.Error())
		}
	}()

	if err := app.Run(ctx); err != nil {
		logger.Error("livevote worker stopped with error", "event", "worker_stopped", "error", err.Error())
	}
}
