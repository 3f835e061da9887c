package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, 1.8, cfg.Policy.DetourRatioLimit)
	assert.Equal(t, 0.7, cfg.Policy.OriginWeight)
	assert.Equal(t, 0.3, cfg.Policy.DestWeight)
	assert.Equal(t, 8*time.Second, cfg.Provider.Timeout)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
app_env: development
server:
  addr: "0.0.0.0:9000"
provider:
  base_url: "http://osrm.local:5000"
  timeout: 5s
policy:
  detour_ratio_limit: 2.0
  synthetic_count: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, "http://osrm.local:5000", cfg.Provider.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 2.0, cfg.Policy.DetourRatioLimit)
	assert.Equal(t, 3, cfg.Policy.SyntheticCount)
	// untouched keys keep defaults
	assert.Equal(t, 0.7, cfg.Policy.OriginWeight)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", "127.0.0.1:0")
	t.Setenv("OSRM_URL", "http://env-osrm:5000")
	t.Setenv("PROVIDER_TIMEOUT", "3s")
	t.Setenv("PLANNER_SEED", "42")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:0", cfg.Server.Addr)
	assert.Equal(t, "http://env-osrm:5000", cfg.Provider.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, int64(42), cfg.Policy.RandomSeed)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
policy:
  detour_ratio_limit: 0.5
`)
	_, err := Load(path)
	assert.Error(t, err)

	path = writeConfig(t, `app_env: staging`)
	_, err = Load(path)
	assert.Error(t, err)

	path = writeConfig(t, `server: [not, a, map]`)
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadPlacesAndSessions(t *testing.T) {
	path := writeConfig(t, `
server:
  session_idle_timeout: 10m
places:
  base_url: "http://nominatim.local"
  user_agent: "cityroute-staging"
  viewbox: [120.5, 16.3, 120.7, 16.5]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.Server.SessionIdleTimeout)
	assert.Equal(t, "http://nominatim.local", cfg.Places.BaseURL)
	assert.Equal(t, []float64{120.5, 16.3, 120.7, 16.5}, cfg.Places.Viewbox)

	path = writeConfig(t, `
places:
  viewbox: [120.5, 16.3]
`)
	_, err = Load(path)
	assert.Error(t, err)
}
