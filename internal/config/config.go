// Package config resolves the configuration file, data, and hooks
// paths, and loads the recognized keys from config.toml.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

const Version = "v0.1.0"

const (
	appDir         = "pomodoro"
	configFileName = "config.toml"
	dbFileName     = "pomodoro.db"
)

// Config holds the settings the CLI front end resolves once per
// invocation and threads to every component (spec.md §9's "explicit
// Context value" design note, replacing the original integration's
// global process-wide variables).
type Config struct {
	FocusDuration time.Duration
	BreakDuration time.Duration

	ConfigPath string
	DBPath     string
	HooksDir   string
}

// Option mutates a Config during construction.
type Option func(*Config) error

// New builds a Config seeded with the recognized-key defaults from
// spec.md §6 (25m focus / 5m break) and applies opts in order.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		FocusDuration: 25 * time.Minute,
		BreakDuration: 5 * time.Minute,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("config option error: %w", err)
		}
	}

	return cfg, nil
}

// WithXDGPaths resolves ConfigPath, DBPath, and HooksDir from the XDG
// base directory spec, exactly as spec.md §6 pins them:
// ${XDG_CONFIG_HOME:-$HOME/.config}/pomodoro/config.toml and
// ${XDG_DATA_HOME:-$HOME/.local/share}/pomodoro/pomodoro.db.
func WithXDGPaths() Option {
	return func(c *Config) error {
		relConfig := filepath.Join(appDir, configFileName)

		configPath, err := xdg.ConfigFile(relConfig)
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}

		dataDir, err := xdg.DataFile(appDir)
		if err != nil {
			return fmt.Errorf("resolving data dir: %w", err)
		}

		c.ConfigPath = configPath
		c.DBPath = filepath.Join(dataDir, dbFileName)
		c.HooksDir = filepath.Join(filepath.Dir(configPath), "hooks")

		return nil
	}
}
