// internal/config/config.go
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the full process configuration, populated from the environment.
type Config struct {
	HTTPPort       uint16   `env:"PORT"            envDefault:"8080" validate:"min=1,max=65535"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","  envDefault:"*"`
	LogLevel       string   `env:"LOG_LEVEL"       envDefault:"info" validate:"oneof=trace debug info warn error"`

	// RedisAddr enables the session history queue when non-empty.
	RedisAddr    string `env:"REDIS_ADDR"`
	RedisDB      int    `env:"REDIS_DB"           envDefault:"0"`
	HistoryQueue string `env:"HISTORY_QUEUE_NAME" envDefault:"gambit_session_events"`
}

// Load reads .env if present, parses the environment, and validates the
// result.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may be set by the runtime.
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
