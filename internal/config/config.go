// Package config loads lingo's YAML configuration and environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid config")

// Environment variables that override config.yaml
const (
	EnvGeminiAPIKey  = "LINGO_GEMINI_API_KEY"
	EnvLogLevel      = "LINGO_LOG_LEVEL"
	EnvStorageDriver = "LINGO_STORAGE_DRIVER"
	EnvDatabaseURL   = "LINGO_DATABASE_URL"
	EnvAMQPURL       = "LINGO_AMQP_URL"
	EnvQueueEnabled  = "LINGO_QUEUE_ENABLED"
	EnvSampleRate    = "LINGO_AUDIO_SAMPLE_RATE"
)

// ApplyEnv overrides config values from the environment
func ApplyEnv(cfg *LocalConfig) {
	cfg.Provider.APIKey = getEnv(EnvGeminiAPIKey, cfg.Provider.APIKey)
	cfg.Log.Level = getEnv(EnvLogLevel, cfg.Log.Level)
	cfg.Storage.Driver = getEnv(EnvStorageDriver, cfg.Storage.Driver)
	cfg.Storage.PostgresURL = getEnv(EnvDatabaseURL, cfg.Storage.PostgresURL)
	cfg.Queue.URL = getEnv(EnvAMQPURL, cfg.Queue.URL)
	cfg.Queue.Enabled = getEnvBool(EnvQueueEnabled, cfg.Queue.Enabled)
	cfg.Audio.SampleRate = getEnvInt(EnvSampleRate, cfg.Audio.SampleRate)
}

// Validate checks settings that would otherwise fail late
func (c *LocalConfig) Validate() error {
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("%w: storage.sqlite_path required", ErrInvalidConfig)
		}
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("%w: storage.postgres_url or %s required", ErrInvalidConfig, EnvDatabaseURL)
		}
	case "file":
		if c.Storage.FileDir == "" {
			return fmt.Errorf("%w: storage.file_dir required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	if c.Audio.SampleRate < 1 || c.Audio.ChannelCount < 1 {
		return fmt.Errorf("%w: audio sample_rate and channel_count must be positive", ErrInvalidConfig)
	}
	if c.Queue.Enabled && c.Queue.URL == "" {
		return fmt.Errorf("%w: queue.url required when queue is enabled", ErrInvalidConfig)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
