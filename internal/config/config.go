// Package config loads settings from an optional YAML file layered over
// built-in defaults. Durations are written as Go duration strings ("2s",
// "168h").
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/logsift/logsift/internal/logging"
)

// Config is the full runtime configuration.
type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Retention struct {
		Capacity          int `yaml:"capacity"`
		AlertCapacity     int `yaml:"alert_capacity"`
		DefaultQueryLimit int `yaml:"default_query_limit"`
	} `yaml:"retention"`

	Alerting struct {
		Threshold     float64 `yaml:"threshold"`
		HighThreshold float64 `yaml:"high_threshold"`
	} `yaml:"alerting"`

	Persistence struct {
		Dir           string `yaml:"dir"`
		FailClosed    bool   `yaml:"fail_closed"`
		Retention     string `yaml:"retention"`      // e.g. "168h"; empty disables cleanup
		CleanInterval string `yaml:"clean_interval"` // e.g. "1h"
	} `yaml:"persistence"`

	Scorer struct {
		Command     []string `yaml:"command"`
		Timeout     string   `yaml:"timeout"`
		MaxInFlight int64    `yaml:"max_in_flight"`
	} `yaml:"scorer"`

	Accelerator struct {
		Path string `yaml:"path"`
	} `yaml:"accelerator"`

	Sources struct {
		StaleAfter    string `yaml:"stale_after"`
		PruneInterval string `yaml:"prune_interval"`
	} `yaml:"sources"`

	Logging logging.Config `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.Server.Port = 3000
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Retention.Capacity = 1000
	cfg.Retention.AlertCapacity = 100
	cfg.Retention.DefaultQueryLimit = 10
	cfg.Alerting.Threshold = 0.7
	cfg.Alerting.HighThreshold = 0.9
	cfg.Persistence.Dir = "data/logs"
	cfg.Persistence.Retention = "168h"
	cfg.Persistence.CleanInterval = "1h"
	cfg.Scorer.Timeout = "2s"
	cfg.Scorer.MaxInFlight = 8
	cfg.Sources.StaleAfter = "24h"
	cfg.Sources.PruneInterval = "10m"
	cfg.Logging = logging.DefaultConfig()
	return cfg
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges and duration syntax.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Retention.Capacity <= 0 {
		return fmt.Errorf("retention capacity must be positive")
	}
	if c.Retention.AlertCapacity <= 0 {
		return fmt.Errorf("alert capacity must be positive")
	}
	if c.Alerting.Threshold < 0 || c.Alerting.Threshold > 1 ||
		c.Alerting.HighThreshold < 0 || c.Alerting.HighThreshold > 1 {
		return fmt.Errorf("alert thresholds must be within [0,1]")
	}
	if c.Alerting.HighThreshold < c.Alerting.Threshold {
		return fmt.Errorf("high threshold must not be below the alert threshold")
	}
	for name, s := range map[string]string{
		"persistence.retention":      c.Persistence.Retention,
		"persistence.clean_interval": c.Persistence.CleanInterval,
		"scorer.timeout":             c.Scorer.Timeout,
		"sources.stale_after":        c.Sources.StaleAfter,
		"sources.prune_interval":     c.Sources.PruneInterval,
	} {
		if s == "" {
			continue
		}
		if _, err := time.ParseDuration(s); err != nil {
			return fmt.Errorf("invalid %s duration %q", name, s)
		}
	}
	return nil
}

// Duration parses a duration field, returning fallback for an empty value.
// Load has already validated the syntax.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
