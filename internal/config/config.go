// Package config loads the jat.yml dashboard configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound indicates the config file does not exist.
	ErrNotFound = errors.New("config file not found")

	// ErrInvalidValue indicates a config field failed validation.
	ErrInvalidValue = errors.New("invalid config value")
)

// Config is the dashboard configuration loaded from jat.yml.
type Config struct {
	// Listen is the HTTP listen address for the dashboard.
	Listen string `yaml:"listen"`

	// WorkDir is where bd commands run; it should contain (or sit
	// under) a beads workspace. Empty means the current directory.
	WorkDir string `yaml:"work_dir"`

	// SignalFile is an optional JSONL file to tail for agent signals,
	// in addition to the HTTP ingest endpoint.
	SignalFile string `yaml:"signal_file"`

	// JournalPath is the sqlite file that persists the latest signal
	// per session across restarts. Empty disables persistence.
	JournalPath string `yaml:"journal_path"`

	// CaptureLines is how many pane lines to capture for session output.
	CaptureLines int `yaml:"capture_lines"`

	// FetchTimeout bounds each dashboard data fetch, e.g. "5s".
	FetchTimeout string `yaml:"fetch_timeout"`

	// TimelineLimit caps how many merged events the feed returns.
	TimelineLimit int `yaml:"timeline_limit"`

	// LogLevel sets logrus verbosity: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no jat.yml exists.
func Default() *Config {
	return &Config{
		Listen:        "127.0.0.1:8844",
		CaptureLines:  200,
		FetchTimeout:  "5s",
		TimelineLimit: 100,
		LogLevel:      "info",
	}
}

// DefaultPath returns ./jat.yml if present, else ~/.config/jat/jat.yml.
func DefaultPath() string {
	if _, err := os.Stat("jat.yml"); err == nil {
		return "jat.yml"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "jat.yml"
	}
	return filepath.Join(home, ".config", "jat", "jat.yml")
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the config at path, falling back to defaults when
// the file is missing. Parse and validation errors still fail.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a config file, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("%w: listen must not be empty", ErrInvalidValue)
	}
	if c.CaptureLines <= 0 {
		return fmt.Errorf("%w: capture_lines must be positive, got %d", ErrInvalidValue, c.CaptureLines)
	}
	if c.TimelineLimit <= 0 {
		return fmt.Errorf("%w: timeline_limit must be positive, got %d", ErrInvalidValue, c.TimelineLimit)
	}
	if c.FetchTimeout != "" {
		if _, err := time.ParseDuration(c.FetchTimeout); err != nil {
			return fmt.Errorf("%w: fetch_timeout %q: %v", ErrInvalidValue, c.FetchTimeout, err)
		}
	}
	return nil
}

// FetchTimeoutDuration returns the parsed fetch timeout.
func (c *Config) FetchTimeoutDuration() time.Duration {
	return ParseDurationOrDefault(c.FetchTimeout, 5*time.Second)
}

// ParseDurationOrDefault parses a duration string, returning def for
// empty or malformed input.
func ParseDurationOrDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
