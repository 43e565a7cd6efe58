// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           int      `env:"PORT" envDefault:"8080"`
	DBPath         string   `env:"DB_PATH" envDefault:"finance.db"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:8080"`
}

// Load reads configuration from the environment, after applying a .env file
// if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
