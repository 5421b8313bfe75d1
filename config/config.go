// Package config holds the fleetwatch settings file.
//
// Config is stored at $XDG_CONFIG_HOME/fleetwatch/config.yaml (defaults
// to ~/.config/fleetwatch/config.yaml). A missing file means defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"fleetwatch/internal/status"
)

// Duration is a time.Duration that reads and writes the usual "15s"
// notation in YAML.
type Duration time.Duration

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// ClockSkew configures the optional NTP drift warning.
type ClockSkew struct {
	Enabled bool   `yaml:"enabled"`
	Pool    string `yaml:"pool,omitempty"`
}

// Config tunes the status engine and its adapters.
type Config struct {
	LogLevel       string    `yaml:"log-level,omitempty"`
	CacheTTL       Duration  `yaml:"cache-ttl,omitempty"`
	WaitBudget     Duration  `yaml:"wait-budget,omitempty"`
	QuickInterval  Duration  `yaml:"quick-interval,omitempty"`
	GlobalInterval Duration  `yaml:"global-interval,omitempty"`
	MaxConcurrency int       `yaml:"max-concurrency,omitempty"`
	DialTimeout    Duration  `yaml:"dial-timeout,omitempty"` // reachability probe dial timeout
	EventLog       string    `yaml:"event-log,omitempty"`    // sqlite journal path, empty disables
	ClockSkew      ClockSkew `yaml:"clock-skew,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:       "info",
		CacheTTL:       Duration(status.DefaultCacheTTL),
		WaitBudget:     Duration(status.DefaultWaitBudget),
		QuickInterval:  Duration(status.DefaultQuickInterval),
		GlobalInterval: Duration(status.DefaultGlobalInterval),
		MaxConcurrency: status.DefaultMaxConcurrency,
	}
}

// Path returns the config file location. It respects XDG_CONFIG_HOME,
// falling back to ~/.config/fleetwatch/config.yaml.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "fleetwatch", "config.yaml")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "fleetwatch", "config.yaml")
}

// Load reads the config file at path; an empty path means Path(). A
// missing file yields Default(), not an error.
func Load(path string) (Config, error) {
	if path == "" {
		path = Path()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to path (Path() when empty), creating
// directories as needed.
func (c Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ServiceOptions maps the config onto status engine options.
func (c Config) ServiceOptions() status.Options {
	return status.Options{
		CacheTTL:       time.Duration(c.CacheTTL),
		WaitBudget:     time.Duration(c.WaitBudget),
		QuickInterval:  time.Duration(c.QuickInterval),
		GlobalInterval: time.Duration(c.GlobalInterval),
		MaxConcurrency: c.MaxConcurrency,
	}
}
