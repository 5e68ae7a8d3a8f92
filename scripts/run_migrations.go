package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/safar/vintagebikes/internal/config"
	"github.com/safar/vintagebikes/internal/database"
	"github.com/safar/vintagebikes/internal/logger"
)

func main() {
	bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		bootLog.Fatal().Msg("usage: go run scripts/run_migrations.go [up|down]")
	}

	direction := os.Args[1]
	if direction != "up" && direction != "down" {
		bootLog.Fatal().Str("direction", direction).Msg("direction must be 'up' or 'down'")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Log)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	if direction == "up" {
		err = database.Migrate(db)
	} else {
		err = database.Rollback(db)
	}
	if err != nil {
		log.Fatal().Err(err).Str("direction", direction).Msg("migration failed")
	}

	log.Info().Str("direction", direction).Msg("migrations applied")
}
