// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds every setting read from the environment. Empty RedisAddr or
// DatabaseURL disables that backend.
type Config struct {
	Port              string
	LogLevel          logrus.Level
	DefaultRoundLimit int

	RedisAddr   string
	RedisDB     int
	QueueName   string
	DatabaseURL string

	HistorianBatchSize int
	HistorianFlush     time.Duration
	RoomInactivity     time.Duration

	AllowedOrigins []string
}

// Load reads the configuration. Unparseable numbers fall back to their
// defaults; an unknown log level is an error.
func Load() (*Config, error) {
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           level,
		DefaultRoundLimit:  getEnvInt("DEFAULT_ROUND_LIMIT", 3),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		QueueName:          getEnv("HISTORIAN_QUEUE_NAME", "show_actions"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		HistorianBatchSize: getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:     time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		RoomInactivity:     time.Duration(getEnvInt("ROOM_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}
	if cfg.DefaultRoundLimit < 1 {
		return nil, fmt.Errorf("DEFAULT_ROUND_LIMIT must be at least 1, got %d", cfg.DefaultRoundLimit)
	}
	if cfg.HistorianBatchSize < 1 {
		cfg.HistorianBatchSize = 1
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer value from an environment variable or returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
