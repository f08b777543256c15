package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// viper keys for the two recognized config.toml keys (spec.md §6).
const (
	keyFocusDuration = "focus_duration"
	keyBreakDuration = "break_duration"
)

// WithViperConfig returns an Option that loads configuration from
// config.toml via Viper. Unknown keys are ignored, matching spec.md §6;
// only the two recognized keys are read, each with GetString.
// If the file does not exist, a default one is written so the path is
// discoverable on first run, mirroring the teacher's WithViperConfig.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("toml")

		setupViperDefaults(v)

		err := v.ReadInConfig()
		if err == nil {
			return loadViperConfig(v, c)
		}

		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading config file failed: %w", err)
		}

		if err := v.WriteConfig(); err != nil {
			return fmt.Errorf("writing default config failed: %w", err)
		}

		return loadViperConfig(v, c)
	}
}

func setupViperDefaults(v *viper.Viper) {
	v.SetDefault(keyFocusDuration, "25m")
	v.SetDefault(keyBreakDuration, "5m")
}

// loadViperConfig reads the two recognized keys into c, tolerating a
// bare number of minutes the way the teacher's parseDuration did.
func loadViperConfig(v *viper.Viper, c *Config) error {
	focus, err := parseDuration(v.GetString(keyFocusDuration))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", keyFocusDuration, err)
	}

	brk, err := parseDuration(v.GetString(keyBreakDuration))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", keyBreakDuration, err)
	}

	c.FocusDuration = focus
	c.BreakDuration = brk

	return nil
}

// parseDuration tries a duration string first, then falls back to
// treating a bare number as minutes.
func parseDuration(s string) (time.Duration, error) {
	dur, err := time.ParseDuration(s)
	if err == nil {
		return dur, nil
	}

	mins, err := time.ParseDuration(s + "m")
	if err != nil {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	return mins, nil
}
