// Package config loads the freets service settings from the environment.
package config

import (
	"errors"
	"time"

	platform "github.com/example/fritter/internal/platform/config"
)

type Config struct {
	platform.AppConfig

	GRPCAddr    string
	DatabaseURL string
	// RedisURL enables the post-author cache and Redis idempotency.
	RedisURL  string
	JWTSecret []byte

	AuthorCacheTTL time.Duration

	// Circuit-breaker settings for the author cache.
	CBMaxRequests      uint32
	CBInterval         time.Duration
	CBTimeout          time.Duration
	CBFailureThreshold uint32

	IdempotencyTTL      time.Duration
	WorkerBatchSize     int
	WorkerBatchInterval time.Duration

	HideBlockedAuthors bool
	PublishEvents      bool
}

func Load() (Config, error) {
	app, err := platform.Load()
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		AppConfig:           app,
		GRPCAddr:            platform.EnvString("GRPC_ADDR", ":9090"),
		DatabaseURL:         platform.EnvString("DATABASE_URL", ""),
		RedisURL:            platform.EnvString("REDIS_URL", ""),
		JWTSecret:           []byte(platform.EnvString("JWT_SECRET", "")),
		AuthorCacheTTL:      platform.EnvDuration("AUTHOR_CACHE_TTL", 10*time.Minute),
		CBMaxRequests:       uint32(platform.EnvInt("CB_MAX_REQUESTS", 5)),
		CBInterval:          platform.EnvDuration("CB_INTERVAL", 60*time.Second),
		CBTimeout:           platform.EnvDuration("CB_TIMEOUT", 30*time.Second),
		CBFailureThreshold:  uint32(platform.EnvInt("CB_FAILURE_THRESHOLD", 5)),
		IdempotencyTTL:      platform.EnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		WorkerBatchSize:     platform.EnvInt("WORKER_BATCH_SIZE", 100),
		WorkerBatchInterval: platform.EnvDuration("WORKER_BATCH_INTERVAL", 2*time.Second),
		HideBlockedAuthors:  platform.EnvBool("HIDE_BLOCKED_AUTHORS", false),
		PublishEvents:       platform.EnvBool("PUBLISH_EVENTS", true),
	}
	if cfg.WorkerBatchSize == 0 {
		cfg.WorkerBatchSize = 1
	}
	if len(cfg.JWTSecret) == 0 {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.IsProduction() && cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required in production")
	}
	return cfg, nil
}
