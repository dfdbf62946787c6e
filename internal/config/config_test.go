package config

import (
	"errors"
	"log/slog"
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("LINGO_TEST_VAR", "value")

	if got := getEnv("LINGO_TEST_VAR", "default"); got != "value" {
		t.Errorf("getEnv() = %q, want value", got)
	}
	if got := getEnv("LINGO_TEST_UNSET", "default"); got != "default" {
		t.Errorf("getEnv() = %q, want default", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"valid", "42", 42},
		{"invalid", "abc", 7},
		{"empty", "", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LINGO_TEST_INT", tt.value)
			if got := getEnvInt("LINGO_TEST_INT", 7); got != tt.want {
				t.Errorf("getEnvInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"true", "true", true},
		{"one", "1", true},
		{"false", "false", false},
		{"invalid", "maybe", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LINGO_TEST_BOOL", tt.value)
			if got := getEnvBool("LINGO_TEST_BOOL", true); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvGeminiAPIKey, "env-key")
	t.Setenv(EnvStorageDriver, "postgres")
	t.Setenv(EnvDatabaseURL, "postgres://db/lingo")
	t.Setenv(EnvAMQPURL, "amqp://mq:5672/")
	t.Setenv(EnvQueueEnabled, "true")
	t.Setenv(EnvSampleRate, "16000")

	cfg := DefaultLocalConfig(t.TempDir())
	cfg.Provider.APIKey = "file-key"
	ApplyEnv(cfg)

	if cfg.Provider.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", cfg.Provider.APIKey)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("Storage.Driver = %q, want postgres", cfg.Storage.Driver)
	}
	if cfg.Storage.PostgresURL != "postgres://db/lingo" {
		t.Errorf("PostgresURL = %q", cfg.Storage.PostgresURL)
	}
	if cfg.Queue.URL != "amqp://mq:5672/" || !cfg.Queue.Enabled {
		t.Errorf("Queue = %+v", cfg.Queue)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", cfg.Audio.SampleRate)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LocalConfig)
		wantErr bool
	}{
		{"defaults", func(*LocalConfig) {}, false},
		{"unknown driver", func(c *LocalConfig) { c.Storage.Driver = "mysql" }, true},
		{"postgres without url", func(c *LocalConfig) { c.Storage.Driver = "postgres" }, true},
		{"postgres with url", func(c *LocalConfig) {
			c.Storage.Driver = "postgres"
			c.Storage.PostgresURL = "postgres://localhost/lingo"
		}, false},
		{"sqlite without path", func(c *LocalConfig) { c.Storage.SQLitePath = "" }, true},
		{"file driver", func(c *LocalConfig) { c.Storage.Driver = "file" }, false},
		{"file without dir", func(c *LocalConfig) {
			c.Storage.Driver = "file"
			c.Storage.FileDir = ""
		}, true},
		{"zero sample rate", func(c *LocalConfig) { c.Audio.SampleRate = 0 }, true},
		{"queue without url", func(c *LocalConfig) {
			c.Queue.Enabled = true
			c.Queue.URL = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLocalConfig(t.TempDir())
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := (LogConfig{Level: tt.level}).SlogLevel(); got != tt.want {
				t.Errorf("SlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}
