package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port                     string   `yaml:"port"`
	DatabaseURL              string   `yaml:"-"`
	DBDriver                 string   `yaml:"db_driver"`
	DBMaxOpenConns           int      `yaml:"db_max_open_conns"`
	DBMaxIdleConns           int      `yaml:"db_max_idle_conns"`
	DBConnMaxLifetimeSeconds int      `yaml:"db_conn_max_lifetime_seconds"`
	DBConnMaxIdleTimeSeconds int      `yaml:"db_conn_max_idle_seconds"`
	GameroomAPIURL           string   `yaml:"gameroom_api_url"`
	GameroomAPITimeoutSecs   int      `yaml:"gameroom_api_timeout_seconds"`
	DefaultGameCode          string   `yaml:"game_code"`
	SocketURL                string   `yaml:"socket_url"`
	PollIntervalMillis       int      `yaml:"poll_interval_ms"`
	ReloadDelaySeconds       int      `yaml:"reload_delay_seconds"`
	SessionIdleSeconds       int      `yaml:"session_idle_seconds"`
	MaxPlayers               int      `yaml:"max_players"`
	AdminPageSize            int      `yaml:"admin_page_size"`
	CORSOrigins              []string `yaml:"cors_origins"`
	NATSURL                  string   `yaml:"nats_url"`
	NATSToken                string   `yaml:"-"`
	NATSSubject              string   `yaml:"nats_subject"`
	LogLevel                 string   `yaml:"log_level"`
	LogFormat                string   `yaml:"log_format"`
}

func Default() Config {
	return Config{
		Port:                     "8080",
		DBDriver:                 "postgres",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		GameroomAPIURL:           "http://localhost:3000/api",
		GameroomAPITimeoutSecs:   10,
		PollIntervalMillis:       1000,
		ReloadDelaySeconds:       10,
		SessionIdleSeconds:       30,
		MaxPlayers:               5,
		AdminPageSize:            10,
		NATSSubject:              "kiosk",
		LogLevel:                 "info",
		LogFormat:                "console",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("KIOSK_CONFIG"); raw != "" {
		_ = LoadFile(raw, &cfg)
	}
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("DB_DRIVER"); raw != "" {
		cfg.DBDriver = strings.ToLower(raw)
	}
	if value, ok := envPositiveInt("DB_MAX_OPEN_CONNS"); ok {
		cfg.DBMaxOpenConns = value
	}
	if value, ok := envPositiveInt("DB_MAX_IDLE_CONNS"); ok {
		cfg.DBMaxIdleConns = value
	}
	if value, ok := envPositiveInt("DB_CONN_MAX_LIFETIME_SECONDS"); ok {
		cfg.DBConnMaxLifetimeSeconds = value
	}
	if value, ok := envPositiveInt("DB_CONN_MAX_IDLE_SECONDS"); ok {
		cfg.DBConnMaxIdleTimeSeconds = value
	}
	if raw := os.Getenv("GAMEROOM_API_URL"); raw != "" {
		cfg.GameroomAPIURL = raw
	}
	if value, ok := envPositiveInt("GAMEROOM_API_TIMEOUT_SECONDS"); ok {
		cfg.GameroomAPITimeoutSecs = value
	}
	if raw := os.Getenv("GAME_CODE"); raw != "" {
		cfg.DefaultGameCode = raw
	}
	if raw := os.Getenv("KIOSK_SOCKET_URL"); raw != "" {
		cfg.SocketURL = raw
	}
	if value, ok := envPositiveInt("POLL_INTERVAL_MS"); ok {
		cfg.PollIntervalMillis = value
	}
	if value, ok := envPositiveInt("RELOAD_DELAY_SECONDS"); ok {
		cfg.ReloadDelaySeconds = value
	}
	if value, ok := envPositiveInt("SESSION_IDLE_SECONDS"); ok {
		cfg.SessionIdleSeconds = value
	}
	if value, ok := envPositiveInt("MAX_PLAYERS"); ok {
		cfg.MaxPlayers = value
	}
	if value, ok := envPositiveInt("ADMIN_PAGE_SIZE"); ok {
		cfg.AdminPageSize = value
	}
	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		cfg.CORSOrigins = splitList(raw)
	}
	if raw := os.Getenv("NATS_URL"); raw != "" {
		cfg.NATSURL = raw
	}
	if raw := os.Getenv("NATS_TOKEN"); raw != "" {
		cfg.NATSToken = raw
	}
	if raw := os.Getenv("NATS_SUBJECT"); raw != "" {
		cfg.NATSSubject = raw
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("LOG_FORMAT"); raw != "" {
		cfg.LogFormat = raw
	}
	return cfg
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

func (c Config) ReloadDelay() time.Duration {
	return time.Duration(c.ReloadDelaySeconds) * time.Second
}

// SessionIdle is how long a kiosk session survives with no browser attached.
func (c Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleSeconds) * time.Second
}

func (c Config) GameroomAPITimeout() time.Duration {
	return time.Duration(c.GameroomAPITimeoutSecs) * time.Second
}

func envPositiveInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
