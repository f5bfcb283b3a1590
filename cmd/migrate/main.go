package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gameroom-kiosk/internal/config"
	"gameroom-kiosk/internal/logging"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

const migrationsDir = "db/migrations"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "up":
		runUp(cfg)
	case "down":
		flags := flag.NewFlagSet("down", flag.ExitOnError)
		steps := flags.Int("steps", 1, "number of migrations to roll back")
		_ = flags.Parse(os.Args[2:])
		runDown(cfg, *steps)
	case "create":
		flags := flag.NewFlagSet("create", flag.ExitOnError)
		name := flags.String("name", "", "migration name")
		_ = flags.Parse(os.Args[2:])
		runCreate(*name)
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate up | down [-steps N] | create -name NAME")
	os.Exit(2)
}

func newMigrate(cfg config.Config) *migrate.Migrate {
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}
	m, err := migrate.New("file://"+migrationsDir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("migration setup failed")
	}
	return m
}

func runUp(cfg config.Config) {
	m := newMigrate(cfg)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	log.Info().Msg("database migrations applied")
}

func runDown(cfg config.Config, steps int) {
	if steps <= 0 {
		log.Fatal().Int("steps", steps).Msg("steps must be positive")
	}
	m := newMigrate(cfg)
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Msg("database rollback failed")
	}
	log.Info().Int("steps", steps).Msg("database migrations rolled back")
}

func runCreate(name string) {
	if name == "" {
		log.Fatal().Msg("migration name is required")
	}
	if strings.ContainsAny(name, " ") {
		log.Fatal().Msg("migration name must not contain spaces")
	}

	version := time.Now().UTC().Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, name)
	upPath := filepath.Join(migrationsDir, base+".up.sql")
	downPath := filepath.Join(migrationsDir, base+".down.sql")

	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create migrations dir")
	}
	if err := writeFile(upPath, "-- up migration\n"); err != nil {
		log.Fatal().Err(err).Msg("create up migration")
	}
	if err := writeFile(downPath, "-- down migration\n"); err != nil {
		log.Fatal().Err(err).Msg("create down migration")
	}
	log.Info().Str("up", upPath).Str("down", downPath).Msg("migration created")
}

func writeFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
