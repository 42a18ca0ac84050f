// Environment-based tuning for itchyserv, the one long-running service
// among this module's three tools. Grounded on
// adred-codev-ws_poc/ws/config.go's LoadConfig/Validate/LogConfig
// shape: an optional .env file loaded via godotenv, parsed into a
// struct via caarlos0/env, validated, then logged once at startup.
// CLI flags always win; these env vars only supply defaults for the
// handful of settings a deployment might want to pin without touching
// the invocation, the way the teacher's WS_* variables do for its
// server.
package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// envConfig holds itchyserv's environment-sourced defaults.
type envConfig struct {
	LogLevel  string `env:"ITCHYSERV_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"ITCHYSERV_LOG_FORMAT" envDefault:"pretty"`
	Mode      string `env:"ITCHYSERV_MODE" envDefault:"print"`
}

// loadEnvConfig reads an optional .env file (missing is fine) and
// then parses process environment variables over it, mirroring the
// teacher's ENV-vars-over-.env-file-over-defaults priority.
func loadEnvConfig(logger zerolog.Logger) (envConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg("no .env file found, using environment variables and defaults only")
	}

	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return envConfig{}, fmt.Errorf("itchyserv: parsing environment config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return envConfig{}, err
	}
	return cfg, nil
}

func (c envConfig) validate() error {
	switch c.LogFormat {
	case "json", "pretty":
	default:
		return fmt.Errorf("itchyserv: ITCHYSERV_LOG_FORMAT must be one of: json, pretty (got %q)", c.LogFormat)
	}
	switch c.Mode {
	case "print", "validate":
	default:
		return fmt.Errorf("itchyserv: ITCHYSERV_MODE must be one of: print, validate (got %q)", c.Mode)
	}
	return nil
}

func (c envConfig) logConfig(logger zerolog.Logger) {
	logger.Info().
		Str("log_level", c.LogLevel).
		Str("log_format", c.LogFormat).
		Str("mode", c.Mode).
		Msg("environment configuration loaded")
}
