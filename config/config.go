package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	DatabaseURL string `env:"DATABASE_URL,required"`
	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres"` // postgres | sqlite

	// Server
	Port           string `env:"PORT" envDefault:"5300"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`

	// Gateway auth (also read by the middleware directly)
	ServiceToken string `env:"CHALLENGE_SERVICE_TOKEN,required"`

	// Payment service: reset fee charges + payout rails feed
	PaymentServiceURL   string        `env:"PAYMENT_SERVICE_URL,required"`
	PaymentServiceToken string        `env:"PAYMENT_SERVICE_TOKEN,required"`
	PayoutPollInterval  time.Duration `env:"PAYOUT_POLL_INTERVAL" envDefault:"30s"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
