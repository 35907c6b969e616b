package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
watchlist:
  pairs: ["BTC-USDT", "ETH-USDT"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":9980", cfg.App.HTTPAddr)
	assert.Equal(t, "binance", cfg.Exchange.Name)
	assert.Equal(t, "USDT", cfg.Exchange.QuoteAsset)
	assert.Equal(t, "5m", cfg.Engine.Interval)
	assert.Equal(t, 50, cfg.Engine.HistoryWindow)
	assert.Equal(t, 3, cfg.Engine.MaxActivePositions)
	assert.Equal(t, OnTripHaltEntries, cfg.Engine.OnTrip)
	assert.Equal(t, 10, cfg.Signal.ShortPeriod)
	assert.Equal(t, 30, cfg.Signal.LongPeriod)
	assert.Equal(t, 14, cfg.Signal.RSIPeriod)
	assert.Equal(t, 1.5, cfg.Risk.RiskPerTradePct)
	assert.Equal(t, 2.0, cfg.Risk.TrailingStopPct)
	assert.Equal(t, 15.0, cfg.Risk.MaxDrawdownPct)
	assert.Equal(t, "30s", cfg.Supervisor.Interval)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
engine:
  interval: 1m
  max_active_positions: 5
  on_trip: halt_engine
signal:
  rsi_period: -1
risk:
  trailing_stop_pct: 3.5
watchlist:
  pairs: ["SOL-USDT"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "1m", cfg.Engine.Interval)
	assert.Equal(t, 5, cfg.Engine.MaxActivePositions)
	assert.Equal(t, OnTripHaltEngine, cfg.Engine.OnTrip)
	assert.Equal(t, -1, cfg.Signal.RSIPeriod, "negative disables the RSI filter")
	assert.InDelta(t, 0.035, cfg.Risk.TrailingStopFraction(), 1e-12)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad interval": `
engine:
  interval: fortnight
watchlist:
  pairs: ["BTC-USDT"]
`,
		"bad on_trip": `
engine:
  on_trip: explode
watchlist:
  pairs: ["BTC-USDT"]
`,
		"long <= short": `
signal:
  short_period: 30
  long_period: 10
watchlist:
  pairs: ["BTC-USDT"]
`,
		"drawdown out of range": `
risk:
  max_drawdown_pct: 150
watchlist:
  pairs: ["BTC-USDT"]
`,
		"empty watchlist": `
app:
  log_level: info
`,
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	_, err = Load("")
	assert.Error(t, err)
}
