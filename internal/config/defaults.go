package config

import "strings"

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.App.Env) == "" {
		c.App.Env = "prod"
	}
	if strings.TrimSpace(c.App.LogLevel) == "" {
		c.App.LogLevel = "info"
	}
	if strings.TrimSpace(c.App.HTTPAddr) == "" {
		c.App.HTTPAddr = ":9980"
	}
	if strings.TrimSpace(c.App.DataPath) == "" {
		c.App.DataPath = "data/tidemark.db"
	}

	if strings.TrimSpace(c.Exchange.Name) == "" {
		c.Exchange.Name = "binance"
	}
	if c.Exchange.HTTPTimeoutSeconds <= 0 {
		c.Exchange.HTTPTimeoutSeconds = 15
	}
	if strings.TrimSpace(c.Exchange.QuoteAsset) == "" {
		c.Exchange.QuoteAsset = "USDT"
	}

	if strings.TrimSpace(c.Engine.Interval) == "" {
		c.Engine.Interval = "5m"
	}
	if c.Engine.HistoryWindow <= 0 {
		c.Engine.HistoryWindow = 50
	}
	if c.Engine.MaxActivePositions <= 0 {
		c.Engine.MaxActivePositions = 3
	}
	if strings.TrimSpace(c.Engine.OnTrip) == "" {
		c.Engine.OnTrip = OnTripHaltEntries
	}

	if c.Signal.ShortPeriod <= 0 {
		c.Signal.ShortPeriod = 10
	}
	if c.Signal.LongPeriod <= 0 {
		c.Signal.LongPeriod = 30
	}
	if c.Signal.RSIPeriod == 0 {
		c.Signal.RSIPeriod = 14
	}
	if c.Signal.CrossoverMarginPct <= 0 {
		c.Signal.CrossoverMarginPct = 1.0
	}
	if c.Signal.RSIBuyCeiling <= 0 {
		c.Signal.RSIBuyCeiling = 60
	}
	if c.Signal.RSISellFloor <= 0 {
		c.Signal.RSISellFloor = 40
	}

	if c.Risk.RiskPerTradePct <= 0 {
		c.Risk.RiskPerTradePct = 1.5
	}
	if c.Risk.MinTradeNotional <= 0 {
		c.Risk.MinTradeNotional = 10
	}
	if c.Risk.QuantityPrecision <= 0 {
		c.Risk.QuantityPrecision = 6
	}
	if c.Risk.TrailingStopPct <= 0 {
		c.Risk.TrailingStopPct = 2.0
	}
	if c.Risk.MaxDrawdownPct <= 0 {
		c.Risk.MaxDrawdownPct = 15.0
	}

	if strings.TrimSpace(c.Supervisor.Interval) == "" {
		c.Supervisor.Interval = "30s"
	}
}
