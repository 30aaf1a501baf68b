// Command seed fills the configured database with demo data. Refuses to run
// in production.
package main

import (
	"log/slog"
	"os"

	"photogram/internal/config"
	"photogram/internal/database"
	"photogram/internal/logging"
	"photogram/internal/seed"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.IsProduction() {
		slog.Error("Refusing to seed a production database")
		os.Exit(1)
	}

	db, err := database.Connect(cfg, logging.Default)
	if err != nil {
		slog.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	opts := seed.DefaultOptions()
	if err := seed.New(db, opts).Run(); err != nil {
		slog.Error("Seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("Seeding complete",
		slog.Int("users", opts.Users),
		slog.Int("posts_per_user", opts.PostsPerUser),
	)
}
