package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GRPC_ADDR", "DATABASE_URL", "REDIS_URL", "AUTHOR_CACHE_TTL",
		"CB_MAX_REQUESTS", "CB_INTERVAL", "CB_TIMEOUT", "CB_FAILURE_THRESHOLD",
		"IDEMPOTENCY_TTL", "WORKER_BATCH_SIZE", "WORKER_BATCH_INTERVAL",
		"HIDE_BLOCKED_AUTHORS", "PUBLISH_EVENTS", "APP_ENV",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("SERVICE_NAME", "freets")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoad_Defaults(t *testing.T) {
	baseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "freets", cfg.ServiceName)
	assert.Equal(t, ":9090", cfg.GRPCAddr)
	assert.Equal(t, []byte("s3cret"), cfg.JWTSecret)
	assert.Equal(t, 10*time.Minute, cfg.AuthorCacheTTL)
	assert.Equal(t, uint32(5), cfg.CBFailureThreshold)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 100, cfg.WorkerBatchSize)
	assert.Equal(t, 2*time.Second, cfg.WorkerBatchInterval)
	assert.False(t, cfg.HideBlockedAuthors)
	assert.True(t, cfg.PublishEvents)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	baseEnv(t)
	t.Setenv("GRPC_ADDR", ":7000")
	t.Setenv("AUTHOR_CACHE_TTL", "30s")
	t.Setenv("WORKER_BATCH_SIZE", "0")
	t.Setenv("HIDE_BLOCKED_AUTHORS", "true")
	t.Setenv("PUBLISH_EVENTS", "false")
	t.Setenv("CB_TIMEOUT", "garbage")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.GRPCAddr)
	assert.Equal(t, 30*time.Second, cfg.AuthorCacheTTL)
	assert.Equal(t, 1, cfg.WorkerBatchSize)
	assert.True(t, cfg.HideBlockedAuthors)
	assert.False(t, cfg.PublishEvents)
	assert.Equal(t, 30*time.Second, cfg.CBTimeout)
}

func TestLoad_Rejects(t *testing.T) {
	baseEnv(t)
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")

	baseEnv(t)
	t.Setenv("APP_ENV", "production")
	_, err = Load()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/freets")
	_, err = Load()
	assert.NoError(t, err)
}
