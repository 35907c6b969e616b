package config

import (
	"fmt"
	"strings"

	"tidemark/internal/scheduler"
)

func validate(c *Config) error {
	if err := c.Engine.validate(); err != nil {
		return err
	}
	if err := c.Signal.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Supervisor.validate(); err != nil {
		return err
	}
	if err := c.Watchlist.validate(); err != nil {
		return err
	}
	return nil
}

func (e EngineConfig) validate() error {
	if _, ok := scheduler.ParseIntervalDuration(e.Interval); !ok {
		return fmt.Errorf("engine.interval is not a valid interval: %q", e.Interval)
	}
	switch e.OnTrip {
	case OnTripHaltEntries, OnTripHaltEngine:
	default:
		return fmt.Errorf("engine.on_trip must be %q or %q, got %q", OnTripHaltEntries, OnTripHaltEngine, e.OnTrip)
	}
	return nil
}

func (s SignalConfig) validate() error {
	if s.LongPeriod <= s.ShortPeriod {
		return fmt.Errorf("signal.long_period (%d) must exceed short_period (%d)", s.LongPeriod, s.ShortPeriod)
	}
	if s.RSIBuyCeiling > 100 || s.RSISellFloor < 0 {
		return fmt.Errorf("signal rsi bounds out of range: ceiling=%v floor=%v", s.RSIBuyCeiling, s.RSISellFloor)
	}
	if s.RSIBuyCeiling <= s.RSISellFloor {
		return fmt.Errorf("signal.rsi_buy_ceiling (%v) must exceed rsi_sell_floor (%v)", s.RSIBuyCeiling, s.RSISellFloor)
	}
	return nil
}

func (r RiskConfig) validate() error {
	if r.RiskPerTradePct <= 0 || r.RiskPerTradePct > 100 {
		return fmt.Errorf("risk.risk_per_trade_pct must be in (0, 100], got %v", r.RiskPerTradePct)
	}
	if r.TrailingStopPct <= 0 || r.TrailingStopPct >= 100 {
		return fmt.Errorf("risk.trailing_stop_pct must be in (0, 100), got %v", r.TrailingStopPct)
	}
	if r.MaxDrawdownPct <= 0 || r.MaxDrawdownPct >= 100 {
		return fmt.Errorf("risk.max_drawdown_pct must be in (0, 100), got %v", r.MaxDrawdownPct)
	}
	return nil
}

func (s SupervisorConfig) validate() error {
	if _, ok := scheduler.ParseIntervalDuration(s.Interval); !ok {
		return fmt.Errorf("supervisor.interval is not a valid interval: %q", s.Interval)
	}
	return nil
}

func (w WatchlistConfig) validate() error {
	if len(w.Pairs) == 0 && strings.TrimSpace(w.Path) == "" {
		return fmt.Errorf("watchlist requires either pairs or path")
	}
	return nil
}
