package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quiz-bot-service/internal/domain"
)

type Config struct {
	Timezone string `yaml:"timezone"`
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Gateway struct {
		URL   string `yaml:"url"`
		Token string `yaml:"token"`
	} `yaml:"gateway"`
	Admins      []int64        `yaml:"admins"`
	Groups      []domain.Group `yaml:"groups"`
	Leaderboard struct {
		Size int `yaml:"size"`
	} `yaml:"leaderboard"`
	Report struct {
		Hour   int `yaml:"hour"`
		Minute int `yaml:"minute"`
	} `yaml:"report"`
	ImagesDir string `yaml:"images_dir"`
}

// Load reads YAML config from path and fills in defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Leaderboard.Size <= 0 {
		cfg.Leaderboard.Size = 5
	}
	if cfg.Report.Hour < 0 || cfg.Report.Hour > 23 || cfg.Report.Minute < 0 || cfg.Report.Minute > 59 {
		return cfg, fmt.Errorf("invalid report time %02d:%02d", cfg.Report.Hour, cfg.Report.Minute)
	}
	return cfg, nil
}

// Location resolves the configured timezone, defaulting to UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
