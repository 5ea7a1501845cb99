// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "LOG_LEVEL", "DEFAULT_ROUND_LIMIT", "REDIS_ADDR", "REDIS_DB",
		"HISTORIAN_QUEUE_NAME", "DATABASE_URL", "HISTORIAN_BATCH_SIZE",
		"HISTORIAN_FLUSH_MS", "ROOM_INACTIVITY_TIMEOUT_SEC", "ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 3, cfg.DefaultRoundLimit)
	assert.Empty(t, cfg.RedisAddr, "redis is off unless configured")
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "show_actions", cfg.QueueName)
	assert.Equal(t, 500*time.Millisecond, cfg.HistorianFlush)
	assert.Equal(t, 10*time.Minute, cfg.RoomInactivity)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEFAULT_ROUND_LIMIT", "5")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("HISTORIAN_BATCH_SIZE", "notanumber")
	t.Setenv("ALLOWED_ORIGINS", "example.com, *.example.org ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 5, cfg.DefaultRoundLimit)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 20, cfg.HistorianBatchSize, "bad numbers fall back to the default")
	assert.Equal(t, []string{"example.com", "*.example.org"}, cfg.AllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "loud")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("DEFAULT_ROUND_LIMIT", "0")
	_, err = Load()
	assert.Error(t, err)
}
