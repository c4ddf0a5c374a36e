package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestArcadeDir(t *testing.T) {
	dir, err := ArcadeDir()
	if err != nil {
		t.Fatalf("ArcadeDir() error = %v", err)
	}

	if filepath.Base(dir) != ".brainarcade" {
		t.Errorf("ArcadeDir() = %q, want ending with .brainarcade", dir)
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ArcadeDir() = %q, want absolute path", dir)
	}
}

func TestEnsureArcadeDir(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	dir, err := EnsureArcadeDir()
	if err != nil {
		t.Fatalf("EnsureArcadeDir() error = %v", err)
	}

	if want := filepath.Join(tmpHome, ".brainarcade"); dir != want {
		t.Errorf("EnsureArcadeDir() = %q, want %q", dir, want)
	}
	for _, subdir := range []string{"logs", "data"} {
		if _, err := os.Stat(filepath.Join(dir, subdir)); os.IsNotExist(err) {
			t.Errorf("EnsureArcadeDir() should create %s", subdir)
		}
	}
}

func TestDefaultLocalConfig(t *testing.T) {
	cfg := DefaultLocalConfig()

	if cfg.Daemon.Port != 7433 {
		t.Errorf("Daemon.Port = %d, want 7433", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("Daemon.Bind = %q, want 127.0.0.1", cfg.Daemon.Bind)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Engine.RecentResults != 20 || cfg.Engine.HistoryLimit != 10 || cfg.Engine.ChartDays != 30 {
		t.Errorf("Engine = %+v, want 20/10/30 defaults", cfg.Engine)
	}
	if cfg.Engine.LockTTL() != 10*time.Second {
		t.Errorf("LockTTL() = %v, want 10s", cfg.Engine.LockTTL())
	}
}

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := loadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}
	if cfg.Daemon.Port != 7433 {
		t.Errorf("Daemon.Port = %d, want default 7433", cfg.Daemon.Port)
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "daemon:\n  port: 9999\nengine:\n  history_limit: 25\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	secrets := "redis_addr: localhost:6379\n"
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), []byte(secrets), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFrom(dir)
	if err != nil {
		t.Fatalf("loadFrom() error = %v", err)
	}
	if cfg.Daemon.Port != 9999 {
		t.Errorf("Daemon.Port = %d, want 9999", cfg.Daemon.Port)
	}
	if cfg.Daemon.Bind != "127.0.0.1" {
		t.Errorf("Daemon.Bind = %q, want default", cfg.Daemon.Bind)
	}
	if cfg.Engine.HistoryLimit != 25 || cfg.Engine.RecentResults != 20 {
		t.Errorf("Engine = %+v", cfg.Engine)
	}
	if cfg.Services.RedisAddr != "localhost:6379" {
		t.Errorf("Services.RedisAddr = %q", cfg.Services.RedisAddr)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("daemon: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadFrom(dir); err == nil {
		t.Error("loadFrom() expected error for invalid yaml")
	}
}

func TestSaveLocalConfig_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := DefaultLocalConfig()
	cfg.Daemon.LogLevel = "debug"
	cfg.Services.DatabaseURL = "postgres://secret@db/arcade"

	if err := SaveLocalConfig(cfg); err != nil {
		t.Fatalf("SaveLocalConfig() error = %v", err)
	}

	dir, _ := ArcadeDir()
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("parse saved config: %v", err)
	}
	if _, ok := raw["services"]; ok {
		t.Error("connection strings must not be written to config.yaml")
	}

	loaded, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if loaded.Daemon.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", loaded.Daemon.LogLevel)
	}
	if loaded.Services.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", loaded.Services.DatabaseURL)
	}
}

func TestSaveSecrets(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := SaveSecrets(ServicesConfig{RabbitMQURL: "amqp://u:p@mq/"}); err != nil {
		t.Fatalf("SaveSecrets() error = %v", err)
	}

	dir, _ := ArcadeDir()
	info, err := os.Stat(filepath.Join(dir, "secrets.yaml"))
	if err != nil {
		t.Fatalf("stat secrets: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("secrets.yaml mode = %o, want 600", perm)
	}

	cfg, err := LoadLocalConfig()
	if err != nil {
		t.Fatalf("LoadLocalConfig() error = %v", err)
	}
	if cfg.Services.RabbitMQURL != "amqp://u:p@mq/" {
		t.Errorf("RabbitMQURL = %q", cfg.Services.RabbitMQURL)
	}
}
