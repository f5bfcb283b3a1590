package main

import (
	"context"
	"flag"

	"gameroom-kiosk/internal/config"
	"gameroom-kiosk/internal/db"
	"gameroom-kiosk/internal/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	filePath := flag.String("file", "players.csv", "path to players csv")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	conn, err := db.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	inserted, err := db.LoadPlayers(context.Background(), conn, *filePath)
	if err != nil {
		log.Fatal().Err(err).Int("loaded", inserted).Str("file", *filePath).Msg("failed to load players")
	}
	log.Info().Int("loaded", inserted).Str("file", *filePath).Msg("players seeded")
}
