package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("defaults-only load should succeed: %v", err)
	}
	if cfg.Scheduler.Interval != 6*time.Hour {
		t.Fatalf("default interval should be 6h, got %s", cfg.Scheduler.Interval)
	}
	if cfg.Scraper.RequestTimeout != 15*time.Second {
		t.Fatalf("default request timeout should be 15s, got %s", cfg.Scraper.RequestTimeout)
	}
	if cfg.Scraper.PacingDelay != 2*time.Second {
		t.Fatalf("default pacing delay should be 2s, got %s", cfg.Scraper.PacingDelay)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scheduler:
  interval: 30m
scraper:
  pacing_delay: 0s
storage:
  data_dir: /tmp/freight-test
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load should succeed: %v", err)
	}
	if cfg.Scheduler.Interval != 30*time.Minute {
		t.Fatalf("interval override not applied: %s", cfg.Scheduler.Interval)
	}
	if cfg.Scraper.PacingDelay != 0 {
		t.Fatalf("pacing override not applied: %s", cfg.Scraper.PacingDelay)
	}
	if cfg.Storage.DataDir != "/tmp/freight-test" {
		t.Fatalf("data dir override not applied: %s", cfg.Storage.DataDir)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.ListenAddr != ":8080" {
		t.Fatalf("listen addr default lost: %s", cfg.Server.ListenAddr)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen addr", func(c *Config) { c.Server.ListenAddr = "" }},
		{"empty data dir", func(c *Config) { c.Storage.DataDir = "" }},
		{"zero timeout", func(c *Config) { c.Scraper.RequestTimeout = 0 }},
		{"negative pacing", func(c *Config) { c.Scraper.PacingDelay = -time.Second }},
		{"zero interval", func(c *Config) { c.Scheduler.Interval = 0 }},
		{"zero max points", func(c *Config) { c.Export.MaxDataPoints = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("baseline load failed: %v", err)
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
