package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"photogram/internal/config"
	"photogram/internal/logging"
	"photogram/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	channels, err := logging.Setup(cfg)
	if err != nil {
		slog.Error("Failed to initialize logging", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer channels.Close()

	srv, err := server.NewServer(cfg, channels)
	if err != nil {
		channels.Error.Error("Failed to initialize server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app := srv.App()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		channels.App.Info("Shutting down server")
		if err := app.Shutdown(); err != nil {
			channels.Error.Error("Server shutdown failed", slog.String("error", err.Error()))
		}
	}()

	channels.App.Info("Starting server",
		slog.String("port", cfg.Port),
		slog.String("env", cfg.Env),
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		channels.Error.Error("Server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Shutdown(); err != nil {
		channels.Error.Error("Resource cleanup failed", slog.String("error", err.Error()))
	}
	channels.App.Info("Server stopped cleanly")
}
