package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_ENV", "nonexistent")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "release" || cfg.Port != 8080 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.RedisURL != "" {
		t.Fatalf("redis_url default = %q", cfg.RedisURL)
	}
	if cfg.PingPeriod != 54*time.Second {
		t.Fatalf("ping_period = %v", cfg.PingPeriod)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_ENV", "test")

	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := []byte("mode: debug\nport: 9090\nredis_url: redis://localhost:6379/1\nping_period: 10s\n")
	if err := os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "debug" || cfg.Port != 9090 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.RedisURL != "redis://localhost:6379/1" {
		t.Fatalf("redis_url = %q", cfg.RedisURL)
	}
	if cfg.PingPeriod != 10*time.Second {
		t.Fatalf("ping_period = %v", cfg.PingPeriod)
	}
	// Values not in the file keep their defaults.
	if cfg.ReadLimit != 1<<20 {
		t.Fatalf("read_limit = %d", cfg.ReadLimit)
	}
}
