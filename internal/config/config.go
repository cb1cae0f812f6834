package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Search   SearchConfig   `yaml:"search"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Server   ServerConfig   `yaml:"server"`
	Alerts   AlertsConfig   `yaml:"alerts"`
}

// APIConfig holds the Google Maps Platform credentials.
type APIConfig struct {
	Key string `yaml:"key"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SearchConfig configures venue discovery.
type SearchConfig struct {
	Queries            []string `yaml:"queries"`
	Location           string   `yaml:"location"`
	RadiusMeters       int      `yaml:"radius_meters"`
	MaxCandidates      int      `yaml:"max_candidates"`
	MaxReviewsPerPlace int      `yaml:"max_reviews_per_place"`
}

// ScoringConfig configures the focus-score engine. ExtraKeywords are
// appended to the built-in lexicon at startup.
type ScoringConfig struct {
	RecencyWindowDays int             `yaml:"recency_window_days"`
	MinRecentReviews  int             `yaml:"min_recent_reviews"`
	ExtraKeywords     []KeywordConfig `yaml:"extra_keywords"`
}

// KeywordConfig is one user-supplied lexicon entry.
type KeywordConfig struct {
	Surface   string  `yaml:"surface"`
	Canonical string  `yaml:"canonical"`
	Weight    float64 `yaml:"weight"`
}

// ScheduleConfig configures the daemon refresh interval.
type ScheduleConfig struct {
	RefreshInterval string `yaml:"refresh_interval"`
}

// ParseRefreshInterval returns the refresh interval as time.Duration.
func (s ScheduleConfig) ParseRefreshInterval() time.Duration {
	d, err := time.ParseDuration(s.RefreshInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// AlertsConfig configures alert destinations and the score threshold
// above which a place is announced.
type AlertsConfig struct {
	MinScore int           `yaml:"min_score"`
	Slack    SlackConfig   `yaml:"slack"`
	Discord  DiscordConfig `yaml:"discord"`
	Webhook  WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./focusplaces.db"},
		Search: SearchConfig{
			Queries:            []string{"coffee shop", "library", "co-working space"},
			RadiusMeters:       12070, // 7.5 miles
			MaxCandidates:      10,
			MaxReviewsPerPlace: 5,
		},
		Scoring: ScoringConfig{
			RecencyWindowDays: 365,
			MinRecentReviews:  3,
		},
		Schedule: ScheduleConfig{RefreshInterval: "6h"},
		Server:   ServerConfig{Port: 8080},
		Alerts:   AlertsConfig{MinScore: 75},
	}
}

// Load reads configuration from a YAML file and applies env var
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GOOGLE_PLACES_API_KEY"); v != "" {
		cfg.API.Key = v
	}
	if v := os.Getenv("FOCUSPLACES_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
}
