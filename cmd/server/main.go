package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gameroom-kiosk/internal/config"
	"gameroom-kiosk/internal/db"
	"gameroom-kiosk/internal/events"
	"gameroom-kiosk/internal/gameroom"
	"gameroom-kiosk/internal/logging"
	"gameroom-kiosk/internal/server"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	conn := openDatabase(cfg)

	publishers := events.Multi{}
	if conn != nil {
		publishers = append(publishers, events.NewStorePublisher(conn))
	}
	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(cfg.NATSURL, cfg.NATSToken)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NATSURL).Msg("nats unavailable, events stay local")
		} else {
			defer func() { _ = nc.Drain() }()
			publishers = append(publishers, events.NewNATSPublisher(nc, cfg.NATSSubject))
			log.Info().Str("url", cfg.NATSURL).Str("subject", cfg.NATSSubject).Msg("publishing kiosk events to nats")
		}
	}

	api := gameroom.NewClient(cfg.GameroomAPIURL, cfg.GameroomAPITimeout())
	srv := server.New(conn, cfg, api, publishers)
	if cfg.DefaultGameCode != "" {
		if _, err := srv.OpenKiosk(cfg.DefaultGameCode); err != nil {
			log.Error().Err(err).Str("game_code", cfg.DefaultGameCode).Msg("failed to open default kiosk")
		}
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("api", cfg.GameroomAPIURL).Msg("gameroom kiosk listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("kiosk shutdown failed")
	}
}

func openDatabase(cfg config.Config) *gorm.DB {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL is not set, wristband and admin routes are disabled")
		return nil
	}
	conn, err := db.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("database connection failed")
	}
	pool := db.Pool{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second,
	}
	if err := db.Configure(conn, pool); err != nil {
		log.Fatal().Err(err).Msg("database pool setup failed")
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	return conn
}
