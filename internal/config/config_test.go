package config

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
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.exchange.coinbase.com", cfg.Exchange.BaseURL)
	assert.Equal(t, "BTC-USD", cfg.Feed.Product)
	assert.Equal(t, 1000, cfg.Feed.MaxHistory)
	assert.Equal(t, 0.5, cfg.Feed.AlertThreshold)
	assert.Equal(t, 20, cfg.Analyzer.MinDataPoints)
	assert.Equal(t, 500.0, cfg.Risk.InitialBalance)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
feed:
  product: ETH-USD
risk:
  initialBalance: 2500
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ETH-USD", cfg.Feed.Product)
	assert.Equal(t, 2500.0, cfg.Risk.InitialBalance)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched fields keep defaults
	assert.Equal(t, 1000, cfg.Feed.MaxHistory)
	assert.Equal(t, 5, cfg.Backtest.MaxPositions)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "feed: [not: a map")

	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("QUANTAGENT_LOG_LEVEL", "TRACE")
	t.Setenv("QUANTAGENT_PRODUCT", "SOL-USD")
	t.Setenv("QUANTAGENT_ALERT_THRESHOLD", "1.25")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, "SOL-USD", cfg.Feed.Product)
	assert.Equal(t, 1.25, cfg.Feed.AlertThreshold)
}

func TestSensitiveFieldExpansion(t *testing.T) {
	t.Setenv("CB_KEY_TEST", "key-from-env")
	path := writeConfig(t, `
exchange:
  apiKey: ${CB_KEY_TEST}
  apiSecret: ${CB_SECRET_UNSET_XYZ}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "key-from-env", cfg.Exchange.APIKey)
	// unset variables are left as-is
	assert.Equal(t, "${CB_SECRET_UNSET_XYZ}", cfg.Exchange.APISecret)
}

func TestLoadRawAndSaveRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	raw, err := LoadRaw(path)
	require.NoError(t, err)
	assert.Empty(t, raw)

	SetValueAtPath(raw, []string{"feed", "product"}, "ETH-USD")
	require.NoError(t, SaveRaw(path, raw))

	reread, err := LoadRaw(path)
	require.NoError(t, err)
	v, ok := GetValueAtPath(reread, []string{"feed", "product"})
	require.True(t, ok)
	assert.Equal(t, "ETH-USD", v)
}
