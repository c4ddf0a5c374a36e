package config

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{"returns default when not set", "ARCADE_TEST_UNSET", "default", "", "default"},
		{"returns env value when set", "ARCADE_TEST_SET", "default", "custom", "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue int
		want         int
	}{
		{"unset", "", 42, 42},
		{"valid", "8080", 42, 8080},
		{"invalid falls back", "eighty", 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("ARCADE_TEST_INT", tt.envValue)
			}
			if got := getEnvInt("ARCADE_TEST_INT", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"unset", "", true, true},
		{"false", "false", true, false},
		{"numeric true", "1", false, true},
		{"invalid falls back", "maybe", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("ARCADE_TEST_BOOL", tt.envValue)
			}
			if got := getEnvBool("ARCADE_TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ARCADE_PORT", "9000")
	t.Setenv("ARCADE_LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://arcade@db/arcade")
	t.Setenv("RABBITMQ_URL", "amqp://guest:guest@mq:5672/")
	t.Setenv("REDIS_ADDR", "cache:6379")

	cfg := DefaultLocalConfig()
	ApplyEnv(cfg)

	if cfg.Daemon.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Daemon.Port)
	}
	if cfg.Daemon.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.Daemon.LogLevel)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres when DATABASE_URL is set", cfg.Storage.Driver)
	}
	if cfg.Services.RabbitMQURL != "amqp://guest:guest@mq:5672/" {
		t.Errorf("RabbitMQURL = %q", cfg.Services.RabbitMQURL)
	}
	if cfg.Services.RedisAddr != "cache:6379" {
		t.Errorf("RedisAddr = %q", cfg.Services.RedisAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestApplyEnv_ExplicitDriverWins(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://arcade@db/arcade")
	t.Setenv("ARCADE_STORAGE_DRIVER", "SQLite")

	cfg := DefaultLocalConfig()
	ApplyEnv(cfg)

	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Storage.Driver)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LocalConfig)
		wantErr bool
	}{
		{"defaults", func(*LocalConfig) {}, false},
		{"port zero", func(c *LocalConfig) { c.Daemon.Port = 0 }, true},
		{"port too high", func(c *LocalConfig) { c.Daemon.Port = 70000 }, true},
		{"unknown driver", func(c *LocalConfig) { c.Storage.Driver = "mongo" }, true},
		{"postgres without url", func(c *LocalConfig) { c.Storage.Driver = "postgres" }, true},
		{"postgres with url", func(c *LocalConfig) {
			c.Storage.Driver = "postgres"
			c.Services.DatabaseURL = "postgres://x"
		}, false},
		{"rate limit zero", func(c *LocalConfig) { c.RateLimit.RequestsPerSecond = 0 }, true},
		{"rate limit disabled", func(c *LocalConfig) {
			c.RateLimit.Enabled = false
			c.RateLimit.RequestsPerSecond = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLocalConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
