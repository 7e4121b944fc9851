package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Reconcile"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"reconcile"`
	}

	Server struct {
		Timeout   time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		RateLimit int           `envconfig:"SERVER_RATE_LIMIT" default:"120"`
	}

	Auth struct {
		// JWTSecret verifies bearer tokens issued by the external auth
		// service. Empty disables verification (local development only).
		JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
	}

	// Suggest tunes the suggestion engine. Weights must sum to 1.0.
	Suggest struct {
		AmountWeight   float64 `envconfig:"SUGGEST_AMOUNT_WEIGHT" default:"0.6"`
		DateWeight     float64 `envconfig:"SUGGEST_DATE_WEIGHT" default:"0.25"`
		TextWeight     float64 `envconfig:"SUGGEST_TEXT_WEIGHT" default:"0.15"`
		DateWindowDays int     `envconfig:"SUGGEST_DATE_WINDOW_DAYS" default:"5"`
		MinScore       float64 `envconfig:"SUGGEST_MIN_SCORE" default:"0.3"`

		AmountToleranceCents int64 `envconfig:"SUGGEST_AMOUNT_TOLERANCE_CENTS" default:"100"`
	}

	// Recon controls auto-match acceptance and period close gating.
	Recon struct {
		AutoAcceptScore  float64 `envconfig:"AUTO_ACCEPT_SCORE" default:"0.85"`
		ThresholdPercent int     `envconfig:"BANK_REC_THRESHOLD_PERCENT" default:"100"`
		ToleranceCents   int64   `envconfig:"BANK_REC_TOLERANCE_CENTS" default:"0"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if sum := cfg.Suggest.AmountWeight + cfg.Suggest.DateWeight + cfg.Suggest.TextWeight; sum < 0.999 || sum > 1.001 {
		return nil, fmt.Errorf("suggestion weights must sum to 1.0, got %.3f", sum)
	}

	return &cfg, nil
}
