// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the runtime configuration of the CAM server.
// Command-line flags in cmd/server override these values.
type Config struct {
	Port           int      `env:"CAM_PORT" envDefault:"8080"`
	DBPath         string   `env:"CAM_DB_PATH" envDefault:"cam.db"`
	LogLevel       string   `env:"CAM_LOG_LEVEL" envDefault:"info"`
	LogFormat      string   `env:"CAM_LOG_FORMAT" envDefault:"json"`
	AllowedOrigins []string `env:"CAM_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:8080"`

	// RequireUser rejects CAM calls without an X-User-ID header.
	RequireUser bool `env:"CAM_REQUIRE_USER" envDefault:"true"`

	// EnableScenarios mounts /api/scenarios, which can reset the store.
	EnableScenarios bool `env:"CAM_ENABLE_SCENARIOS" envDefault:"false"`
}

// Load parses Config from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
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
