// Package config loads server settings from the environment (and a .env file
// in development).
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/robalobadob/concentration/internal/game"
)

// Config is every tunable of the server.
type Config struct {
	Port     string `env:"PORT" envDefault:"5175"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`

	Store  string `env:"STORE" envDefault:"sqlite"` // sqlite | memory
	DBPath string `env:"DB_PATH" envDefault:"./data/concentration.db"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"concentration_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	DailySalt   string `env:"DAILY_SALT" envDefault:"local_dev_salt"`
	PaletteFile string `env:"PALETTE_FILE"`

	DwellDelay     time.Duration `env:"DWELL_DELAY" envDefault:"800ms"`
	CompleteDelay  time.Duration `env:"COMPLETE_DELAY" envDefault:"500ms"`
	PreviewShow    time.Duration `env:"PREVIEW_SHOW" envDefault:"1s"`
	PreviewHide    time.Duration `env:"PREVIEW_HIDE" envDefault:"500ms"`
	TickInterval   time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	HandlerTimeout time.Duration `env:"HANDLER_TIMEOUT" envDefault:"10s"`
	TableIdle      time.Duration `env:"TABLE_IDLE" envDefault:"2h"`
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (c Config) validate() error {
	switch c.Store {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("config: STORE must be sqlite or memory, got %q", c.Store)
	}
	if c.Store == "sqlite" && c.DBPath == "" {
		return errors.New("config: DB_PATH is required for the sqlite store")
	}
	if c.TickInterval <= 0 {
		return errors.New("config: TICK_INTERVAL must be positive")
	}
	if c.HandlerTimeout <= 0 {
		return errors.New("config: HANDLER_TIMEOUT must be positive")
	}
	if c.JWTExpiresDays <= 0 {
		return errors.New("config: JWT_EXPIRES_DAYS must be positive")
	}
	return nil
}

// Production reports whether cookies should be Secure.
func (c Config) Production() bool { return c.AppEnv == "production" }

// Timing converts the delay settings for the game engine.
func (c Config) Timing() game.Timing {
	return game.Timing{
		Dwell:       c.DwellDelay,
		Complete:    c.CompleteDelay,
		PreviewShow: c.PreviewShow,
		PreviewHide: c.PreviewHide,
		Tick:        c.TickInterval,
	}
}

// TokenTTL is the account token lifetime.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}
