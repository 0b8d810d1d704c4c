// Package config loads analyzer settings from defaults, an optional
// YAML file and environment variable overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the analysis pipeline.
type Config struct {
	DBPath string `yaml:"db_path"`

	// Motion stream and jerk analysis
	SampleRateHz       float64 `yaml:"sample_rate_hz"`
	JerkThresholdGPerS float64 `yaml:"jerk_threshold_g_per_s"`

	// Trip score penalty weights
	WeightJerkDensity   float64 `yaml:"weight_jerk_density"`
	WeightSpeedVariance float64 `yaml:"weight_speed_variance"`

	// Focus point evaluation
	MaxPassDistanceM float64 `yaml:"max_pass_distance_m"`
	HistoryLimit     int     `yaml:"history_limit"`

	// Comment generation
	CommentRatePerSec float64 `yaml:"comment_rate_per_sec"`
	CommentRetries    int     `yaml:"comment_retries"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:              "./data/drivescore.db",
		SampleRateHz:        10.0,
		JerkThresholdGPerS:  0.5,
		WeightJerkDensity:   3.0,
		WeightSpeedVariance: 2.0,
		MaxPassDistanceM:    50.0,
		HistoryLimit:        3,
		CommentRatePerSec:   1.0,
		CommentRetries:      1,
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when empty or absent), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.DBPath = getenv("DB_PATH", cfg.DBPath)
	cfg.SampleRateHz = getenvFloat("SAMPLE_RATE_HZ", cfg.SampleRateHz)
	cfg.JerkThresholdGPerS = getenvFloat("JERK_THRESHOLD", cfg.JerkThresholdGPerS)
	cfg.WeightJerkDensity = getenvFloat("WEIGHT_JERK_DENSITY", cfg.WeightJerkDensity)
	cfg.WeightSpeedVariance = getenvFloat("WEIGHT_SPEED_VARIANCE", cfg.WeightSpeedVariance)
	cfg.MaxPassDistanceM = getenvFloat("MAX_PASS_DISTANCE_M", cfg.MaxPassDistanceM)
	cfg.HistoryLimit = getenvInt("HISTORY_LIMIT", cfg.HistoryLimit)
	cfg.CommentRatePerSec = getenvFloat("COMMENT_RATE_PER_SEC", cfg.CommentRatePerSec)
	cfg.CommentRetries = getenvInt("COMMENT_RETRIES", cfg.CommentRetries)

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
