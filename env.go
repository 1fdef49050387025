package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

// Session stores selectable with MONOPOLY_STORE
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// AppConfig holds process settings read from the environment. Command line
// flags override individual fields.
type AppConfig struct {
	Host          string        `env:"MONOPOLY_HOST" envDefault:"localhost"`
	Port          int           `env:"MONOPOLY_PORT" envDefault:"8080"`
	ConfigsDir    string        `env:"MONOPOLY_CONFIGS_DIR" envDefault:"configs"`
	SessionsDir   string        `env:"MONOPOLY_SESSIONS_DIR" envDefault:"sessions"`
	Store         string        `env:"MONOPOLY_STORE" envDefault:"file"`
	DBPath        string        `env:"MONOPOLY_DB_PATH" envDefault:"sessions.db"`
	SavesDir      string        `env:"MONOPOLY_SAVES_DIR" envDefault:"saves"`
	LogLevel      string        `env:"MONOPOLY_LOG_LEVEL" envDefault:"info"`
	SessionMaxAge time.Duration `env:"MONOPOLY_SESSION_MAX_AGE" envDefault:"24h"`
	APIURL        string        `env:"MONOPOLY_API_URL" envDefault:"http://localhost:8080"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// loadAppConfig parses and checks the process settings
func loadAppConfig() (AppConfig, error) {
	var cfg AppConfig
	if err := ParseEnv(&cfg); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c AppConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Store {
	case StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("unknown session store %q (want %s or %s)", c.Store, StoreFile, StoreSQLite)
	}
	if c.ConfigsDir == "" {
		return fmt.Errorf("configs directory is required")
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// newLogger builds the process logger. Logs go to stderr so the stdio MCP
// transport keeps stdout to itself.
func newLogger(level string, debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if debug {
		lvl = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}
