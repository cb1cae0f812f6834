package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "./focusplaces.db", cfg.Database.Path)
	assert.Equal(t, []string{"coffee shop", "library", "co-working space"}, cfg.Search.Queries)
	assert.Equal(t, 365, cfg.Scoring.RecencyWindowDays)
	assert.Equal(t, 3, cfg.Scoring.MinRecentReviews)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 75, cfg.Alerts.MinScore)
	assert.Equal(t, 6*time.Hour, cfg.Schedule.ParseRefreshInterval())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  key: yaml-key
database:
  path: /tmp/test.db
search:
  queries: ["tea house"]
  location: "Boulder, CO"
  radius_meters: 5000
scoring:
  recency_window_days: 180
  min_recent_reviews: 5
  extra_keywords:
    - surface: "standing desk"
      canonical: work
      weight: 2.0
schedule:
  refresh_interval: 30m
server:
  port: 9090
alerts:
  min_score: 80
  slack:
    enabled: true
    webhook_url: https://hooks.slack.example/xyz
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "yaml-key", cfg.API.Key)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.Equal(t, []string{"tea house"}, cfg.Search.Queries)
	assert.Equal(t, "Boulder, CO", cfg.Search.Location)
	assert.Equal(t, 5000, cfg.Search.RadiusMeters)
	assert.Equal(t, 180, cfg.Scoring.RecencyWindowDays)
	assert.Equal(t, 5, cfg.Scoring.MinRecentReviews)
	require.Len(t, cfg.Scoring.ExtraKeywords, 1)
	assert.Equal(t, KeywordConfig{Surface: "standing desk", Canonical: "work", Weight: 2.0}, cfg.Scoring.ExtraKeywords[0])
	assert.Equal(t, 30*time.Minute, cfg.Schedule.ParseRefreshInterval())
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 80, cfg.Alerts.MinScore)
	assert.True(t, cfg.Alerts.Slack.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GOOGLE_PLACES_API_KEY", "env-key")
	t.Setenv("FOCUSPLACES_DB_PATH", "/tmp/env.db")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.example/env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.API.Key)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, "https://hooks.slack.example/env", cfg.Alerts.Slack.WebhookURL)
	assert.True(t, cfg.Alerts.Slack.Enabled)
}

func TestParseRefreshIntervalFallback(t *testing.T) {
	s := ScheduleConfig{RefreshInterval: "not a duration"}
	assert.Equal(t, 6*time.Hour, s.ParseRefreshInterval())
}
