package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, 500, cfg.FetchBatchSize)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 600*time.Second, cfg.TTL(EndpointCohorts))
	assert.Equal(t, 300*time.Second, cfg.TTL(EndpointLifecycle))
	assert.Equal(t, 30*time.Second, cfg.TTL(EndpointTimeSeries))
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	ttlPath := filepath.Join(dir, "ttl.yaml")
	require.NoError(t, os.WriteFile(ttlPath, []byte("cache_ttls:\n  cohorts: 2h\n  timeseries: 5s\n  lifecycle: 2m\n"), 0o600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("ANALYTICS_TIMEZONE=Asia/Kolkata\nANALYTICS_TTL_FILE="+ttlPath+"\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("ANALYTICS_TIMEZONE")
		os.Unsetenv("ANALYTICS_TTL_FILE")
	})

	cfg, err := Load(envPath)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())
	assert.Equal(t, 600*time.Second, cfg.TTL(EndpointCohorts), "clamped to the maximum")
	assert.Equal(t, 30*time.Second, cfg.TTL(EndpointTimeSeries), "clamped to the minimum")
	assert.Equal(t, 2*time.Minute, cfg.TTL(EndpointLifecycle))
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"ANALYTICS_CACHE_BACKEND": "memcached",
		"ANALYTICS_TIMEZONE":      "Mars/Olympus",
		"ANALYTICS_FETCH_BATCH":   "0",
		"ANALYTICS_RATE_LIMIT":    "-1",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_ZeroRateLimitDisablesLimiting(t *testing.T) {
	t.Setenv("ANALYTICS_RATE_LIMIT", "0")
	t.Setenv("ANALYTICS_RATE_BURST", "0")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Zero(t, cfg.RateLimit)
}

func TestLoad_RateLimitNeedsBurst(t *testing.T) {
	t.Setenv("ANALYTICS_RATE_LIMIT", "5")
	t.Setenv("ANALYTICS_RATE_BURST", "0")
	_, err := Load("")
	assert.Error(t, err)
}

func TestParseTTLs_UnknownEndpoint(t *testing.T) {
	_, err := parseTTLs([]byte("cache_ttls:\n  leads: 1m\n"))
	assert.Error(t, err)
}
