package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Accounts    AccountsConfig  `toml:"accounts"`
	Upstream    UpstreamConfig  `toml:"upstream"`
	Scrape      ScrapeConfig    `toml:"scrape"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	WebSocket   WebSocketConfig `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	InMemory       bool   `toml:"in_memory"`        // Run without disk persistence (tests)
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean runs
}

// AccountsConfig describes the credential pool store
type AccountsConfig struct {
	File       string `toml:"file"`        // CSV file with columns: cookie,proxy,status,daily_usage
	DailyLimit int    `toml:"daily_limit"` // Max dispatches per account per day
}

// UpstreamConfig describes the scraping service this coordinator dispatches to
type UpstreamConfig struct {
	BaseURL            string `toml:"base_url"`              // e.g. "http://localhost:5000"
	Timeout            string `toml:"timeout"`               // HTTP request timeout, e.g. "30s"
	RateLimitPerSecond int    `toml:"rate_limit_per_second"` // Client-side request pacing
}

// TimeoutDuration returns the parsed request timeout, defaulting to 30s
func (u UpstreamConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(u.Timeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// ScrapeConfig controls batch splitting, polling, and pipeline concurrency
type ScrapeConfig struct {
	ChunkSize      int     `toml:"chunk_size"`       // Work items per batch
	MaxConcurrent  int     `toml:"max_concurrent"`   // Simultaneous dispatch+poll pipelines
	PollInterval   string  `toml:"poll_interval"`    // Base wait between status polls, e.g. "10s"
	PollJitter     float64 `toml:"poll_jitter"`      // Jitter fraction applied to poll interval (0.2 = ±20%)
	MaxPollRetries int     `toml:"max_poll_retries"` // Non-terminal polls before a batch times out
	StaggerMin     string  `toml:"stagger_min"`      // Lower bound of randomized pipeline start delay
	StaggerMax     string  `toml:"stagger_max"`      // Upper bound of randomized pipeline start delay
	RegistryTTL    string  `toml:"registry_ttl"`     // How long finished runs stay queryable
}

// PollIntervalDuration returns the parsed poll interval, defaulting to 10s
func (s ScrapeConfig) PollIntervalDuration() time.Duration {
	if d, err := time.ParseDuration(s.PollInterval); err == nil && d > 0 {
		return d
	}
	return 10 * time.Second
}

// StaggerRange returns the parsed stagger bounds, defaulting to 30s..90s.
// A max below min collapses to min (fixed delay).
func (s ScrapeConfig) StaggerRange() (time.Duration, time.Duration) {
	min := 30 * time.Second
	max := 90 * time.Second
	if d, err := time.ParseDuration(s.StaggerMin); err == nil && d >= 0 {
		min = d
	}
	if d, err := time.ParseDuration(s.StaggerMax); err == nil && d >= 0 {
		max = d
	}
	if max < min {
		max = min
	}
	return min, max
}

// RegistryTTLDuration returns the parsed run-registry TTL, defaulting to 24h
func (s ScrapeConfig) RegistryTTLDuration() time.Duration {
	if d, err := time.ParseDuration(s.RegistryTTL); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

// SchedulerConfig controls background maintenance jobs
type SchedulerConfig struct {
	Enabled        bool   `toml:"enabled"`
	UsageResetCron string `toml:"usage_reset_cron"` // Cron expression for the daily usage reset
	SweepInterval  string `toml:"sweep_interval"`   // How often expired runs are evicted, e.g. "1h"
}

// SweepIntervalDuration returns the parsed registry sweep interval, defaulting to 1h
func (s SchedulerConfig) SweepIntervalDuration() time.Duration {
	if d, err := time.ParseDuration(s.SweepInterval); err == nil && d > 0 {
		return d
	}
	return time.Hour
}

// WebSocketConfig contains configuration for the run-event stream
type WebSocketConfig struct {
	// Whitelist of event types to broadcast. Empty list allows all events.
	AllowedEvents []string `toml:"allowed_events"`
	// Throttle intervals for high-frequency events. Map of event type to duration string.
	// Example: {"batch_dispatched": "500ms"}
	ThrottleIntervals map[string]string `toml:"throttle_intervals"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in colligo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Accounts: AccountsConfig{
			File:       "./accounts.csv",
			DailyLimit: 250,
		},
		Upstream: UpstreamConfig{
			BaseURL:            "http://localhost:5000",
			Timeout:            "30s",
			RateLimitPerSecond: 2,
		},
		Scrape: ScrapeConfig{
			ChunkSize:      50,
			MaxConcurrent:  3,
			PollInterval:   "10s",
			PollJitter:     0.2,
			MaxPollRetries: 10,
			StaggerMin:     "30s",
			StaggerMax:     "90s",
			RegistryTTL:    "24h",
		},
		Scheduler: SchedulerConfig{
			Enabled:        true,
			UsageResetCron: "0 0 * * *", // Midnight, matches the daily quota window
			SweepInterval:  "1h",
		},
		WebSocket: WebSocketConfig{
			AllowedEvents: []string{},
			ThrottleIntervals: map[string]string{
				"batch_polling": "1s", // Poll ticks can be chatty on large runs
			},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
// Example: LoadFromFiles("base.toml", "override.toml") - override.toml settings
// take precedence over base.toml
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: COLLIGO_ENV, fallback: GO_ENV)
	if env := os.Getenv("COLLIGO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("COLLIGO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("COLLIGO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("COLLIGO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("COLLIGO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("COLLIGO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("COLLIGO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Accounts configuration
	if file := os.Getenv("COLLIGO_ACCOUNTS_FILE"); file != "" {
		config.Accounts.File = file
	}
	if limit := os.Getenv("COLLIGO_ACCOUNTS_DAILY_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			config.Accounts.DailyLimit = l
		}
	}

	// Upstream configuration
	if baseURL := os.Getenv("COLLIGO_UPSTREAM_BASE_URL"); baseURL != "" {
		config.Upstream.BaseURL = baseURL
	}
	if timeout := os.Getenv("COLLIGO_UPSTREAM_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.Upstream.Timeout = timeout
		}
	}
	if rateLimit := os.Getenv("COLLIGO_UPSTREAM_RATE_LIMIT"); rateLimit != "" {
		if rl, err := strconv.Atoi(rateLimit); err == nil {
			config.Upstream.RateLimitPerSecond = rl
		}
	}

	// Scrape configuration
	if chunkSize := os.Getenv("COLLIGO_SCRAPE_CHUNK_SIZE"); chunkSize != "" {
		if cs, err := strconv.Atoi(chunkSize); err == nil {
			config.Scrape.ChunkSize = cs
		}
	}
	if maxConcurrent := os.Getenv("COLLIGO_SCRAPE_MAX_CONCURRENT"); maxConcurrent != "" {
		if mc, err := strconv.Atoi(maxConcurrent); err == nil {
			config.Scrape.MaxConcurrent = mc
		}
	}
	if pollInterval := os.Getenv("COLLIGO_SCRAPE_POLL_INTERVAL"); pollInterval != "" {
		if _, err := time.ParseDuration(pollInterval); err == nil {
			config.Scrape.PollInterval = pollInterval
		}
	}
	if pollJitter := os.Getenv("COLLIGO_SCRAPE_POLL_JITTER"); pollJitter != "" {
		if pj, err := strconv.ParseFloat(pollJitter, 64); err == nil {
			config.Scrape.PollJitter = pj
		}
	}
	if maxRetries := os.Getenv("COLLIGO_SCRAPE_MAX_POLL_RETRIES"); maxRetries != "" {
		if mr, err := strconv.Atoi(maxRetries); err == nil {
			config.Scrape.MaxPollRetries = mr
		}
	}
	if staggerMin := os.Getenv("COLLIGO_SCRAPE_STAGGER_MIN"); staggerMin != "" {
		if _, err := time.ParseDuration(staggerMin); err == nil {
			config.Scrape.StaggerMin = staggerMin
		}
	}
	if staggerMax := os.Getenv("COLLIGO_SCRAPE_STAGGER_MAX"); staggerMax != "" {
		if _, err := time.ParseDuration(staggerMax); err == nil {
			config.Scrape.StaggerMax = staggerMax
		}
	}
	if registryTTL := os.Getenv("COLLIGO_SCRAPE_REGISTRY_TTL"); registryTTL != "" {
		if _, err := time.ParseDuration(registryTTL); err == nil {
			config.Scrape.RegistryTTL = registryTTL
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("COLLIGO_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if resetCron := os.Getenv("COLLIGO_SCHEDULER_USAGE_RESET_CRON"); resetCron != "" {
		config.Scheduler.UsageResetCron = resetCron
	}

	// WebSocket configuration
	if allowedEvents := os.Getenv("COLLIGO_WEBSOCKET_ALLOWED_EVENTS"); allowedEvents != "" {
		events := []string{}
		for _, e := range strings.Split(allowedEvents, ",") {
			if trimmed := strings.TrimSpace(e); trimmed != "" {
				events = append(events, trimmed)
			}
		}
		if len(events) > 0 {
			config.WebSocket.AllowedEvents = events
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ValidateCronSchedule validates a standard 5-field cron expression
func ValidateCronSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

