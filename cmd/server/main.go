// Package main is the entry point for the secure-login server.
//
// The main package is kept minimal — its job is to:
//  1. Load configuration (env vars, .env overlay)
//  2. Create the logger
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, ...). This separation keeps the app testable and its
// components reusable.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/secure-login/internal/config"
	"github.com/sakif/secure-login/internal/server"
)

func main() {
	// Bootstrap logger at Info; once config loads, the level it names wins.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		// Deliberately fatal: a missing JWT_SECRET must stop the process,
		// not degrade into a server that can't mint sessions — or worse,
		// one that mints forgeable ones.
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	// Ensure the database directory exists (like `mkdir -p`).
	if dbDir := filepath.Dir(cfg.DBPath); dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
