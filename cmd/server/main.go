// Package main is the entry point for the gallery API server.
//
// main stays minimal: load configuration, build the logger, hand both
// to the server package, and exit non-zero on failure. All real logic
// lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/gallery-api/internal/config"
	"github.com/sakif/gallery-api/internal/server"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("ENV") != "production" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Load fails with a complete list of missing variables — one boot
	// failure instead of one per forgotten variable.
	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Ensure the database directory exists before sqlite tries to open
	// the file (fresh deployments start with an empty data dir).
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
