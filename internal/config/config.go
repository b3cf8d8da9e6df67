package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Addr      string
	DBDSN     string
	RedisAddr string
	JWTSecret string

	// Public chat retention: messages older than the window are purged
	// on every interval tick.
	ChatRetentionWindow   time.Duration
	ChatRetentionInterval time.Duration
	// Delay before the first purge after process start.
	ChatRetentionInitialDelay time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Addr:                      getEnv("ADDR", ":8080"),
		DBDSN:                     os.Getenv("DB_DSN"),
		RedisAddr:                 getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:                 os.Getenv("JWT_SECRET"),
		ChatRetentionWindow:       getDuration("CHAT_RETENTION_WINDOW", 24*time.Hour),
		ChatRetentionInterval:     getDuration("CHAT_RETENTION_INTERVAL", 3*time.Hour),
		ChatRetentionInitialDelay: getDuration("CHAT_RETENTION_INITIAL_DELAY", 30*time.Second),
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Plain seconds are accepted too.
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
