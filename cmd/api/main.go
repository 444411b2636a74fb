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

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Serve HTTP and fan tally snapshots out until SIGINT/SIGTERM.

// @title LiveVote API
// @version 1.0
// @description Vote casting and live tally fan-out.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "event", "api_config_failed", "error", err.Error())
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildAPI(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap api failed", "event", "api_bootstrap_failed", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("api shutdown close failed", "event", "api_close_failed", "error", err.Error())
		}
	}()

	if err := app.Run(ctx); err != nil {
		logger.Error("livevote api stopped with error", "event", "api_stopped", "error", err.Error())
		return
	}
	logger.Info("livevote api stopped", "event", "api_stopped")
}
