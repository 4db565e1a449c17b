package config

import (
	"errors"
	"strings"
)

type HTTPConfig struct {
	Addr string
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	// Env is APP_ENV, e.g. "development" or "production".
	Env  string
	HTTP HTTPConfig
}

// IsProduction reports whether in-memory fallbacks must be refused.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: EnvString("SERVICE_NAME", ""),
		LogLevel:    EnvString("LOG_LEVEL", "info"),
		Env:         EnvString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Addr: EnvString("HTTP_ADDR", ":8080"),
		},
	}
	if cfg.ServiceName == "" {
		return AppConfig{}, errors.New("SERVICE_NAME is required")
	}
	return cfg, nil
}
