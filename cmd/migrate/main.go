// Command migrate runs the schema migrations against the configured
// database and exits. Use it in environments where the server runs with
// auto-migration disabled.
package main

import (
	"log/slog"
	"os"

	"photogram/internal/config"
	"photogram/internal/database"
	"photogram/internal/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := database.Connect(cfg, logging.Default)
	if err != nil {
		slog.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := database.Migrate(db); err != nil {
		slog.Error("Migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("Migration complete")
}
