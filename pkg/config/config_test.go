package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	sitesPath := filepath.Join(dir, "sites.json")
	require.NoError(t, os.WriteFile(sitesPath, []byte(`[
		{"name": "news", "url": "https://wordpress.org/news", "collections": ["posts"], "page_size": 50,
		 "params": {"order": "asc", "sticky": false}},
		{"name": "home", "url": "https://wordpress.org/"}
	]`), 0o644))

	t.Setenv("SITES_FILE_PATH", sitesPath)
	t.Setenv("POLL_INTERVAL", "90")
	t.Setenv("WORKER_POOL_SIZE", "7")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, 90*time.Second, cfg.PollInterval)
	assert.Equal(t, 7, cfg.WorkerPoolSize)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)

	require.Len(t, cfg.Sites, 2)
	assert.Equal(t, "news", cfg.Sites[0].Name)
	assert.Equal(t, 50, cfg.Sites[0].PageSize)
	assert.Equal(t, "asc", cfg.Sites[0].Params["order"])
	assert.Equal(t, false, cfg.Sites[0].Params["sticky"])
	assert.Equal(t, []string{"posts"}, cfg.Sites[1].Collections, "collections default to posts")
}

func TestLoad_MissingSitesFileFallsBack(t *testing.T) {
	t.Setenv("SITES_FILE_PATH", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("WP_SITE_URL", "https://example.org")

	cfg := Load()

	require.Len(t, cfg.Sites, 1)
	assert.Equal(t, "https://example.org", cfg.Sites[0].URL)
	assert.Equal(t, []string{"posts", "pages"}, cfg.Sites[0].Collections)
}

func TestDecodeSites_Invalid(t *testing.T) {
	assert.Nil(t, decodeSites(strings.NewReader(`{not json`)))
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("X_DURATION", "2m")
	assert.Equal(t, 2*time.Minute, getDurationEnv("X_DURATION", time.Second))

	t.Setenv("X_DURATION", "nope")
	assert.Equal(t, time.Second, getDurationEnv("X_DURATION", time.Second))
}
