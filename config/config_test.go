package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 15*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, int64(10<<20), cfg.Fetch.MaxBodyBytes)
	assert.Equal(t, DefaultUserAgent, cfg.Fetch.UserAgent)
	assert.True(t, cfg.Probe.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Probe.Timeout)
	assert.False(t, cfg.Auth.Enabled)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GOLBAT_PORT", "9090")
	t.Setenv("GOLBAT_FETCH_TIMEOUT", "3s")
	t.Setenv("GOLBAT_PROBES", "false")
	t.Setenv("GOLBAT_API_KEYS", " a, ,b ")
	t.Setenv("GOLBAT_RATE_RPS", "not-a-number")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	assert.False(t, cfg.Probe.Enabled)
	assert.Equal(t, []string{"a", "b"}, cfg.Auth.APIKeys)
	assert.Equal(t, 5.0, cfg.RateLimit.RequestsPerSecond)
}
