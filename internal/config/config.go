// Package config loads the server's file configuration: rig preset, detection
// profile, synchronization tuning, and service endpoints.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// FileConfig is the resolved server configuration. Values not present in the
// file fall back to the documented defaults.
type FileConfig struct {
	Listen  string `mapstructure:"listen"`
	DBPath  string `mapstructure:"db_path"`
	Profile string `mapstructure:"profile"`

	PosePreset string `mapstructure:"pose_preset"`
	Cameras    int    `mapstructure:"cameras"`

	SyncToleranceMS    int `mapstructure:"sync_tolerance_ms"`
	RecencyWindowMS    int `mapstructure:"recency_window_ms"`
	ConsumerIntervalMS int `mapstructure:"consumer_interval_ms"`
}

// SyncTolerance returns the synchronization tolerance as a duration.
func (c FileConfig) SyncTolerance() time.Duration {
	return time.Duration(c.SyncToleranceMS) * time.Millisecond
}

// RecencyWindow returns the recency window as a duration.
func (c FileConfig) RecencyWindow() time.Duration {
	return time.Duration(c.RecencyWindowMS) * time.Millisecond
}

// ConsumerInterval returns the consumer cycle pacing as a duration.
func (c FileConfig) ConsumerInterval() time.Duration {
	return time.Duration(c.ConsumerIntervalMS) * time.Millisecond
}

// Load reads the config file at path (YAML). A missing file yields pure
// defaults; a malformed file is an error.
func Load(path string) (FileConfig, error) {
	v := viper.New()

	v.SetDefault("listen", ":8080")
	v.SetDefault("db_path", "stereotrack.db")
	v.SetDefault("profile", "bird")
	v.SetDefault("pose_preset", "skyward-pair")
	v.SetDefault("cameras", 2)
	v.SetDefault("sync_tolerance_ms", 200)
	v.SetDefault("recency_window_ms", 1000)
	v.SetDefault("consumer_interval_ms", 400)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return FileConfig{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return FileConfig{}, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var cfg FileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

// Validate rejects unusable configuration before any session starts.
func (c FileConfig) Validate() error {
	if c.Cameras < 2 {
		return fmt.Errorf("cameras %d: triangulation needs at least 2", c.Cameras)
	}
	if c.SyncToleranceMS <= 0 {
		return fmt.Errorf("sync_tolerance_ms %d must be positive", c.SyncToleranceMS)
	}
	if c.RecencyWindowMS <= 0 {
		return fmt.Errorf("recency_window_ms %d must be positive", c.RecencyWindowMS)
	}
	if c.ConsumerIntervalMS <= 0 {
		return fmt.Errorf("consumer_interval_ms %d must be positive", c.ConsumerIntervalMS)
	}
	return nil
}
