// Package main provides a local inference backend speaking the same
// POST /generate contract as the remote service the proxy forwards to.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/gepetto/internal/backend"
	"github.com/raphaelgruber/gepetto/internal/config"
	"github.com/raphaelgruber/gepetto/internal/llm"
	"github.com/raphaelgruber/gepetto/internal/metrics"
	"github.com/raphaelgruber/gepetto/internal/server"
)

func main() {
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: load .env: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel, "backend")
	defer closeLog()
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	model, err := llm.New(initCtx, cfg.Provider)
	cancel()
	if err != nil {
		logger.Error("failed to create model", "provider", cfg.Provider.Provider, "error", err)
		os.Exit(1)
	}

	recorder := metrics.NewRecorder()
	srv := server.NewBackend(":"+cfg.BackendPort, backend.NewHandler(model, logger, recorder), recorder, logger)

	logger.Info("starting gepetto-backend",
		"port", cfg.BackendPort,
		"provider", model.Provider(),
		"model", model.Model(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
