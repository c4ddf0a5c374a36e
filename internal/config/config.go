package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads ~/.brainarcade/config.yaml and secrets.yaml, then applies a
// .env file from the working directory, then the process environment.
func Load() (*LocalConfig, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	cfg, err := LoadLocalConfig()
	if err != nil {
		return nil, err
	}

	ApplyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with ARCADE_* variables and service URLs.
// DATABASE_URL switches storage to postgres unless a driver is set explicitly.
func ApplyEnv(cfg *LocalConfig) {
	cfg.Daemon.Port = getEnvInt("ARCADE_PORT", cfg.Daemon.Port)
	cfg.Daemon.Bind = getEnv("ARCADE_BIND", cfg.Daemon.Bind)
	cfg.Daemon.LogLevel = getEnv("ARCADE_LOG_LEVEL", cfg.Daemon.LogLevel)

	cfg.Storage.Path = getEnv("ARCADE_DB_PATH", cfg.Storage.Path)

	cfg.Services.DatabaseURL = getEnv("DATABASE_URL", cfg.Services.DatabaseURL)
	cfg.Services.RabbitMQURL = getEnv("RABBITMQ_URL", cfg.Services.RabbitMQURL)
	cfg.Services.RedisAddr = getEnv("REDIS_ADDR", cfg.Services.RedisAddr)

	if os.Getenv("DATABASE_URL") != "" {
		cfg.Storage.Driver = "postgres"
	}
	cfg.Storage.Driver = strings.ToLower(getEnv("ARCADE_STORAGE_DRIVER", cfg.Storage.Driver))

	cfg.Engine.RetryAttempts = getEnvInt("ARCADE_RETRY_ATTEMPTS", cfg.Engine.RetryAttempts)
	cfg.Engine.LockTTLSeconds = getEnvInt("ARCADE_LOCK_TTL_SECONDS", cfg.Engine.LockTTLSeconds)

	cfg.RateLimit.Enabled = getEnvBool("ARCADE_RATE_LIMIT", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerSecond = getEnvInt("ARCADE_RATE_LIMIT_RPS", cfg.RateLimit.RequestsPerSecond)
}

// Validate rejects settings the daemon cannot start with
func (c *LocalConfig) Validate() error {
	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		return fmt.Errorf("daemon.port %d out of range", c.Daemon.Port)
	}

	switch c.Storage.Driver {
	case "sqlite":
	case "postgres":
		if c.Services.DatabaseURL == "" {
			return fmt.Errorf("storage.driver postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q (want sqlite or postgres)", c.Storage.Driver)
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limit.requests_per_second must be positive")
	}
	return nil
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
