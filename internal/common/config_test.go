package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if config.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", config.Server.Port)
	}
	if config.Accounts.DailyLimit != 250 {
		t.Errorf("Accounts.DailyLimit = %d, want 250", config.Accounts.DailyLimit)
	}
	if config.Scrape.ChunkSize != 50 {
		t.Errorf("Scrape.ChunkSize = %d, want 50", config.Scrape.ChunkSize)
	}
	if config.Scrape.MaxConcurrent != 3 {
		t.Errorf("Scrape.MaxConcurrent = %d, want 3", config.Scrape.MaxConcurrent)
	}
	if !config.Scheduler.Enabled {
		t.Error("Scheduler.Enabled = false, want true")
	}
}

func TestLoadFromFilesPrecedence(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	if err := os.WriteFile(base, []byte(`
[server]
port = 9000
host = "0.0.0.0"

[scrape]
chunk_size = 25
`), 0644); err != nil {
		t.Fatalf("Failed to write base config: %v", err)
	}

	override := filepath.Join(dir, "override.toml")
	if err := os.WriteFile(override, []byte(`
[server]
port = 9001
`), 0644); err != nil {
		t.Fatalf("Failed to write override config: %v", err)
	}

	config, err := LoadFromFiles(base, override)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	// Later file wins
	if config.Server.Port != 9001 {
		t.Errorf("Server.Port = %d, want 9001 (override.toml)", config.Server.Port)
	}
	// Earlier file survives where the later one is silent
	if config.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (base.toml)", config.Server.Host)
	}
	if config.Scrape.ChunkSize != 25 {
		t.Errorf("Scrape.ChunkSize = %d, want 25 (base.toml)", config.Scrape.ChunkSize)
	}
	// Defaults survive where no file speaks
	if config.Scrape.MaxConcurrent != 3 {
		t.Errorf("Scrape.MaxConcurrent = %d, want default 3", config.Scrape.MaxConcurrent)
	}
}

func TestLoadFromFilesMissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Error("Expected error for missing config file, got nil")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COLLIGO_SERVER_PORT", "7777")
	t.Setenv("COLLIGO_ACCOUNTS_FILE", "/tmp/pool.csv")
	t.Setenv("COLLIGO_SCRAPE_MAX_CONCURRENT", "5")
	t.Setenv("COLLIGO_UPSTREAM_TIMEOUT", "45s")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if config.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 from env", config.Server.Port)
	}
	if config.Accounts.File != "/tmp/pool.csv" {
		t.Errorf("Accounts.File = %q, want /tmp/pool.csv from env", config.Accounts.File)
	}
	if config.Scrape.MaxConcurrent != 5 {
		t.Errorf("Scrape.MaxConcurrent = %d, want 5 from env", config.Scrape.MaxConcurrent)
	}
	if config.Upstream.Timeout != "45s" {
		t.Errorf("Upstream.Timeout = %q, want 45s from env", config.Upstream.Timeout)
	}
}

func TestEnvOverrideBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colligo.toml")
	if err := os.WriteFile(path, []byte("[server]\nport = 9000\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("COLLIGO_SERVER_PORT", "9999")

	config, err := LoadFromFiles(path)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if config.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999 (env beats file)", config.Server.Port)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 3000, "example.com")
	if config.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", config.Server.Port)
	}
	if config.Server.Host != "example.com" {
		t.Errorf("Server.Host = %q, want example.com", config.Server.Host)
	}

	// Zero values leave config untouched
	ApplyFlagOverrides(config, 0, "")
	if config.Server.Port != 3000 || config.Server.Host != "example.com" {
		t.Error("Zero-value flags should not override config")
	}
}

func TestDurationHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"timeout parsed", UpstreamConfig{Timeout: "45s"}.TimeoutDuration(), 45 * time.Second},
		{"timeout default on empty", UpstreamConfig{}.TimeoutDuration(), 30 * time.Second},
		{"timeout default on garbage", UpstreamConfig{Timeout: "soon"}.TimeoutDuration(), 30 * time.Second},
		{"poll interval parsed", ScrapeConfig{PollInterval: "5s"}.PollIntervalDuration(), 5 * time.Second},
		{"poll interval default", ScrapeConfig{}.PollIntervalDuration(), 10 * time.Second},
		{"registry ttl parsed", ScrapeConfig{RegistryTTL: "48h"}.RegistryTTLDuration(), 48 * time.Hour},
		{"registry ttl default", ScrapeConfig{}.RegistryTTLDuration(), 24 * time.Hour},
		{"sweep interval parsed", SchedulerConfig{SweepInterval: "30m"}.SweepIntervalDuration(), 30 * time.Minute},
		{"sweep interval default", SchedulerConfig{}.SweepIntervalDuration(), time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestStaggerRange(t *testing.T) {
	tests := []struct {
		name    string
		min     string
		max     string
		wantMin time.Duration
		wantMax time.Duration
	}{
		{"defaults", "", "", 30 * time.Second, 90 * time.Second},
		{"parsed", "10s", "20s", 10 * time.Second, 20 * time.Second},
		{"zero min allowed", "0s", "5s", 0, 5 * time.Second},
		{"max below min collapses", "60s", "10s", 60 * time.Second, 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := ScrapeConfig{StaggerMin: tt.min, StaggerMax: tt.max}.StaggerRange()
			if min != tt.wantMin || max != tt.wantMax {
				t.Errorf("StaggerRange() = (%v, %v), want (%v, %v)", min, max, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"PRODUCTION", true},
		{"  prod  ", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsProduction(); got != tt.want {
				t.Errorf("IsProduction(%q) = %v, want %v", tt.env, got, tt.want)
			}
		})
	}
}

func TestValidateCronSchedule(t *testing.T) {
	if err := ValidateCronSchedule("0 0 * * *"); err != nil {
		t.Errorf("Valid schedule rejected: %v", err)
	}
	if err := ValidateCronSchedule("not a cron"); err == nil {
		t.Error("Invalid schedule accepted")
	}
}
