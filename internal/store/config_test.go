package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
terminal:
  base_url: "http://127.0.0.1:5001"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 30, cfg.Terminal.TimeoutSeconds)
	assert.Equal(t, PolicyPerRequest, cfg.Terminal.ConnectionPolicy)
	assert.Equal(t, 90, cfg.History.LookbackDays)
	assert.Equal(t, "EURUSD", cfg.History.AnchorSymbol)
}

func TestLoadConfigExplicitValuesWin(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
terminal:
  base_url: "http://10.0.0.5:5001"
  timeout_seconds: 5
  connection_policy: "PERSISTENT"
history:
  lookback_days: 7
  anchor_symbol: "XAUUSD"
robots:
  experts_path: "/mt5/Experts"
metrics:
  enabled: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Terminal.TimeoutSeconds)
	assert.Equal(t, PolicyPersistent, cfg.Terminal.ConnectionPolicy)
	assert.Equal(t, 7, cfg.History.LookbackDays)
	assert.Equal(t, "XAUUSD", cfg.History.AnchorSymbol)
	assert.Equal(t, "/mt5/Experts", cfg.Robots.ExpertsPath)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadConfigExpertsPathEnvOverride(t *testing.T) {
	t.Setenv("MT5_EXPERTS_PATH", "/env/Experts")

	path := writeConfig(t, `
terminal:
  base_url: "http://127.0.0.1:5001"
robots:
  experts_path: "/yaml/Experts"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/Experts", cfg.Robots.ExpertsPath)
}

func TestLoadConfigRejectsMissingBaseURL(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":8000"
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "terminal.base_url")
}

func TestLoadConfigRejectsUnknownPolicy(t *testing.T) {
	path := writeConfig(t, `
terminal:
  base_url: "http://127.0.0.1:5001"
  connection_policy: "POOLED"
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "connection_policy")
}

func TestLoadConfigRejectsNegativeLookback(t *testing.T) {
	path := writeConfig(t, `
terminal:
  base_url: "http://127.0.0.1:5001"
history:
  lookback_days: -3
`)

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "lookback_days")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeConfig(t, "terminal: [not a map")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
