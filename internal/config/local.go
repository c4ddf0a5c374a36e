package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// LocalConfig holds configuration for the arcade daemon
type LocalConfig struct {
	Daemon    DaemonConfig    `yaml:"daemon"`
	Storage   StorageConfig   `yaml:"storage"`
	Engine    EngineConfig    `yaml:"engine"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Services  ServicesConfig  `yaml:"-"` // secrets.yaml and environment only
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
}

// StorageConfig selects the persistence backend
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres
	Path   string `yaml:"path"`   // sqlite file; empty means ~/.brainarcade/data/arcade.db
}

// EngineConfig tunes the performance engine
type EngineConfig struct {
	RecentResults       int `yaml:"recent_results"`
	HistoryLimit        int `yaml:"history_limit"`
	ChartDays           int `yaml:"chart_days"`
	RetryAttempts       int `yaml:"retry_attempts"`
	MaxConcurrentWrites int `yaml:"max_concurrent_writes"`
	LockTTLSeconds      int `yaml:"lock_ttl_seconds"`
}

// LockTTL returns the Redis lease duration
func (e EngineConfig) LockTTL() time.Duration {
	return time.Duration(e.LockTTLSeconds) * time.Second
}

// RateLimitConfig holds per-client HTTP rate limits
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second"`
	Burst             int  `yaml:"burst"`
}

// ServicesConfig holds connection strings for optional backing services.
// They may carry credentials, so they never go to config.yaml.
type ServicesConfig struct {
	DatabaseURL string `yaml:"database_url,omitempty"`
	RabbitMQURL string `yaml:"rabbitmq_url,omitempty"`
	RedisAddr   string `yaml:"redis_addr,omitempty"`
}

// ArcadeDir returns the path to ~/.brainarcade
func ArcadeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".brainarcade"), nil
}

// EnsureArcadeDir creates ~/.brainarcade and subdirectories if they don't exist
func EnsureArcadeDir() (string, error) {
	dir, err := ArcadeDir()
	if err != nil {
		return "", err
	}

	for _, subdir := range []string{"", "logs", "data"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for a single-machine install
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7433,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
		},
		Engine: EngineConfig{
			RecentResults:       20,
			HistoryLimit:        10,
			ChartDays:           30,
			RetryAttempts:       3,
			MaxConcurrentWrites: 8,
			LockTTLSeconds:      10,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 20,
			Burst:             40,
		},
	}
}

// SQLitePath resolves the database file, defaulting under ArcadeDir.
func (c *LocalConfig) SQLitePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ArcadeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data", "arcade.db"), nil
}

// LoadLocalConfig loads configuration from ~/.brainarcade/config.yaml
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := ArcadeDir()
	if err != nil {
		return nil, err
	}
	return loadFrom(dir)
}

func loadFrom(dir string) (*LocalConfig, error) {
	cfg := DefaultLocalConfig()
	configPath := filepath.Join(dir, "config.yaml")

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// defaults
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadSecrets(dir, cfg); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}

	return cfg, nil
}

// loadSecrets loads connection strings from secrets.yaml
func loadSecrets(dir string, cfg *LocalConfig) error {
	data, err := os.ReadFile(filepath.Join(dir, "secrets.yaml"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read secrets: %w", err)
	}

	var secrets ServicesConfig
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return fmt.Errorf("parse secrets: %w", err)
	}
	cfg.Services = secrets
	return nil
}

// SaveLocalConfig saves configuration to ~/.brainarcade/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureArcadeDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// SaveSecrets saves connection strings to ~/.brainarcade/secrets.yaml
func SaveSecrets(services ServicesConfig) error {
	dir, err := EnsureArcadeDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(services)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}

	// Owner read/write only
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), data, 0600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}

	return nil
}
