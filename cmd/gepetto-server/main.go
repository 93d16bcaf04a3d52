// Package main provides the gepetto proxy server: POST /api/generate plus the
// embedded web client.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/gepetto/internal/config"
	"github.com/raphaelgruber/gepetto/internal/metrics"
	"github.com/raphaelgruber/gepetto/internal/models"
	"github.com/raphaelgruber/gepetto/internal/proxy"
	"github.com/raphaelgruber/gepetto/internal/server"
	"github.com/raphaelgruber/gepetto/web"
)

func main() {
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: load .env: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel, "server")
	defer closeLog()
	slog.SetDefault(logger)

	cfg.LogWarnings(logger)

	catalog, err := models.LoadCatalog(cfg.ModelsFile)
	if err != nil {
		logger.Error("failed to load model catalog", "file", cfg.ModelsFile, "error", err)
		os.Exit(1)
	}

	distFS, err := fs.Sub(web.Dist, "dist")
	if err != nil {
		logger.Error("failed to create sub filesystem", "error", err)
		os.Exit(1)
	}

	recorder := metrics.NewRecorder()
	handler := proxy.New(proxy.Config{
		Backend:    cfg.Backend,
		FixedModel: cfg.FixedModel,
	}, logger, recorder)

	srv := server.New(":"+cfg.ServerPort, server.Deps{
		Proxy:    handler,
		Recorder: recorder,
		Models:   catalog,
		Static:   distFS,
		Logger:   logger,
	})

	logger.Info("starting gepetto-server",
		"port", cfg.ServerPort,
		"backend", handler.BackendURL(),
		"fixed_model", cfg.FixedModel,
	)
	logger.Info("Web UI available", "url", fmt.Sprintf("http://localhost:%s/", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
