// Package config loads pane-pilot configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (PANE_PILOT_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .pane-pilot.yaml in current directory
//  2. ~/.config/pane-pilot/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all pane-pilot configuration.
type Config struct {
	// Session is the owned session name used by the remote backend.
	Session string `yaml:"session"`

	// Execution protocol
	ExecTimeout  string `yaml:"exec_timeout"`  // Go duration string, e.g. "30s"
	PollInterval string `yaml:"poll_interval"` // Go duration string, e.g. "200ms"
	CaptureLines int    `yaml:"capture_lines"` // Scrollback lines per capture

	// Idle detection
	IdleTime      string `yaml:"idle_time"`      // Unchanged-for duration, e.g. "2s"
	CheckInterval string `yaml:"check_interval"` // Go duration string, e.g. "500ms"
	IdleTimeout   string `yaml:"idle_timeout"`   // Overall bound; "0"/"off" means unbounded
	PromptTimeout string `yaml:"prompt_timeout"` // Go duration string, e.g. "10s"

	// History
	HistoryPath string `yaml:"history_path"` // SQLite file; "off" disables recording

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs

	// Parsed durations (not from YAML, set after loading)
	ExecTimeoutDuration   time.Duration `yaml:"-"`
	PollIntervalDuration  time.Duration `yaml:"-"`
	IdleTimeDuration      time.Duration `yaml:"-"`
	CheckIntervalDuration time.Duration `yaml:"-"`
	IdleTimeoutDuration   time.Duration `yaml:"-"`
	PromptTimeoutDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Session:       "pane-pilot",
		ExecTimeout:   "30s",
		PollInterval:  "200ms",
		CaptureLines:  200,
		IdleTime:      "2s",
		CheckInterval: "500ms",
		IdleTimeout:   "0",
		PromptTimeout: "10s",
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	mergeEnv(cfg)

	if cfg.HistoryPath == "" {
		cfg.HistoryPath = defaultHistoryPath()
	}

	var err error
	if cfg.ExecTimeoutDuration, err = time.ParseDuration(cfg.ExecTimeout); err != nil {
		return nil, fmt.Errorf("invalid exec timeout %q: %w", cfg.ExecTimeout, err)
	}
	if cfg.PollIntervalDuration, err = time.ParseDuration(cfg.PollInterval); err != nil {
		return nil, fmt.Errorf("invalid poll interval %q: %w", cfg.PollInterval, err)
	}
	if cfg.IdleTimeDuration, err = time.ParseDuration(cfg.IdleTime); err != nil {
		return nil, fmt.Errorf("invalid idle time %q: %w", cfg.IdleTime, err)
	}
	if cfg.CheckIntervalDuration, err = time.ParseDuration(cfg.CheckInterval); err != nil {
		return nil, fmt.Errorf("invalid check interval %q: %w", cfg.CheckInterval, err)
	}
	if cfg.IdleTimeoutDuration, err = parseDurationOrDisable(cfg.IdleTimeout, 0); err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", cfg.IdleTimeout, err)
	}
	if cfg.PromptTimeoutDuration, err = time.ParseDuration(cfg.PromptTimeout); err != nil {
		return nil, fmt.Errorf("invalid prompt timeout %q: %w", cfg.PromptTimeout, err)
	}

	return cfg, nil
}

// HistoryEnabled reports whether execution history recording is on.
func (c *Config) HistoryEnabled() bool {
	return c.HistoryPath != "off"
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".pane-pilot.yaml"); err == nil {
		return ".pane-pilot.yaml", data, nil
	}

	// 2. XDG config dir / ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "pane-pilot", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pane-pilot-history.db"
	}
	return filepath.Join(home, ".local", "share", "pane-pilot", "history.db")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Session != "" {
		cfg.Session = file.Session
	}
	if file.ExecTimeout != "" {
		cfg.ExecTimeout = file.ExecTimeout
	}
	if file.PollInterval != "" {
		cfg.PollInterval = file.PollInterval
	}
	if file.CaptureLines > 0 {
		cfg.CaptureLines = file.CaptureLines
	}
	if file.IdleTime != "" {
		cfg.IdleTime = file.IdleTime
	}
	if file.CheckInterval != "" {
		cfg.CheckInterval = file.CheckInterval
	}
	if file.IdleTimeout != "" {
		cfg.IdleTimeout = file.IdleTimeout
	}
	if file.PromptTimeout != "" {
		cfg.PromptTimeout = file.PromptTimeout
	}
	if file.HistoryPath != "" {
		cfg.HistoryPath = file.HistoryPath
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("PANE_PILOT_SESSION"); v != "" {
		cfg.Session = v
	}
	if v := os.Getenv("PANE_PILOT_EXEC_TIMEOUT"); v != "" {
		cfg.ExecTimeout = v
	}
	if v := os.Getenv("PANE_PILOT_POLL_INTERVAL"); v != "" {
		cfg.PollInterval = v
	}
	if v := os.Getenv("PANE_PILOT_CAPTURE_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CaptureLines = n
		}
	}
	if v := os.Getenv("PANE_PILOT_IDLE_TIME"); v != "" {
		cfg.IdleTime = v
	}
	if v := os.Getenv("PANE_PILOT_CHECK_INTERVAL"); v != "" {
		cfg.CheckInterval = v
	}
	if v := os.Getenv("PANE_PILOT_IDLE_TIMEOUT"); v != "" {
		cfg.IdleTimeout = v
	}
	if v := os.Getenv("PANE_PILOT_PROMPT_TIMEOUT"); v != "" {
		cfg.PromptTimeout = v
	}
	if v := os.Getenv("PANE_PILOT_HISTORY"); v != "" {
		cfg.HistoryPath = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
}

// parseDurationOrDisable parses a duration string. "0", "off", "disable"
// return 0. Empty string returns the fallback value.
func parseDurationOrDisable(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	if s == "0" || s == "off" || s == "disable" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
