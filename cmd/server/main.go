// Command server runs the ReelHub web application.
//
// Configuration comes from the environment and an optional .env file; see
// internal/config for the variables. The process serves until SIGINT or
// SIGTERM.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/reelhub/internal/config"
	"github.com/sakif/reelhub/internal/server"
)

func main() {
	// Startup errors are logged with a default logger; the configured
	// level is only known once the config loaded.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if cfg.SessionKeyGenerated {
		logger.Warn("SESSION_KEY not set, using a random key: logins end when the server restarts")
	}
	if cfg.AdminName == "" {
		logger.Debug("ADMIN_NAME not set, no admin account will be seeded")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
