package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConnectMode controls when the one-shot path may contact the Tibber API.
type ConnectMode string

const (
	// ConnectAuto fetches only when the cached series says new prices are due.
	ConnectAuto ConnectMode = "auto"
	// ConnectNever serves from the cache file alone.
	ConnectNever ConnectMode = "never"
	// ConnectAlways fetches unconditionally.
	ConnectAlways ConnectMode = "always"
)

// ParseConnectMode converts a mode name from a flag or config file into a
// ConnectMode.
func ParseConnectMode(s string) (ConnectMode, error) {
	switch ConnectMode(s) {
	case ConnectAuto, ConnectNever, ConnectAlways:
		return ConnectMode(s), nil
	}
	return "", fmt.Errorf("unknown connect mode: %s", s)
}

// Config holds all application configuration.
type Config struct {
	Tibber struct {
		Token  string `yaml:"token"`
		HomeID string `yaml:"home_id"`
	} `yaml:"tibber"`
	Fetch struct {
		MaxRetries   int `yaml:"max_retries"`
		InitialDelay int `yaml:"initial_delay"` // seconds
		MaxDelay     int `yaml:"max_delay"`     // seconds
	} `yaml:"fetch"`
	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
	History struct {
		Path string `yaml:"path"`
	} `yaml:"history"`
	PricesFile   string `yaml:"prices_file"`
	UpdateTime   string `yaml:"update_time"`
	OutputFormat string `yaml:"output_format"`
	ConnectMode  string `yaml:"connect_mode"`
	LogLevel     string `yaml:"log_level"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. An empty path or a missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TIBBER_TOKEN"); v != "" {
		cfg.Tibber.Token = v
	}
	if v := os.Getenv("TIBBER_HOME_ID"); v != "" {
		cfg.Tibber.HomeID = v
	}

	// Defaults
	if cfg.PricesFile == "" {
		cfg.PricesFile = "prices.json"
	}
	if cfg.UpdateTime == "" {
		cfg.UpdateTime = "13:00"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "json"
	}
	if cfg.ConnectMode == "" {
		cfg.ConnectMode = "auto"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	if cfg.Fetch.MaxRetries == 0 {
		cfg.Fetch.MaxRetries = 3
	}
	if cfg.Fetch.InitialDelay == 0 {
		cfg.Fetch.InitialDelay = 1
	}
	if cfg.Fetch.MaxDelay == 0 {
		cfg.Fetch.MaxDelay = 60
	}

	return cfg, nil
}

// Validate checks the numeric ranges. The enumerated fields are validated
// where they are parsed into their typed forms.
func (c *Config) Validate() error {
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative")
	}
	if c.Fetch.InitialDelay < 0 {
		return fmt.Errorf("fetch.initial_delay must not be negative")
	}
	if c.Fetch.MaxDelay <= 0 {
		return fmt.Errorf("fetch.max_delay must be positive")
	}
	return nil
}
