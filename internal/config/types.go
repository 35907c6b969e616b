package config

// Config is the root of the YAML configuration. Percentage fields are
// expressed in percent (1.5 means 1.5%); use the Fraction helpers when a
// ratio is needed.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Exchange   ExchangeConfig   `mapstructure:"exchange"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Signal     SignalConfig     `mapstructure:"signal"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Watchlist  WatchlistConfig  `mapstructure:"watchlist"`
	Notify     NotifyConfig     `mapstructure:"notify"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`
	DataPath string `mapstructure:"data_path"`
}

type ExchangeConfig struct {
	Name               string `mapstructure:"name"`
	APIKey             string `mapstructure:"api_key"`
	APISecret          string `mapstructure:"api_secret"`
	RESTBaseURL        string `mapstructure:"rest_base_url"`
	HTTPTimeoutSeconds int    `mapstructure:"http_timeout_seconds"`
	ProxyEnabled       bool   `mapstructure:"proxy_enabled"`
	RESTProxyURL       string `mapstructure:"rest_proxy_url"`
	QuoteAsset         string `mapstructure:"quote_asset"`
}

type EngineConfig struct {
	Interval           string `mapstructure:"interval"`
	HistoryWindow      int    `mapstructure:"history_window"`
	MaxActivePositions int    `mapstructure:"max_active_positions"`
	// OnTrip picks the breaker policy: "halt_entries" keeps the loop alive
	// and only blocks new positions; "halt_engine" stops the loop entirely.
	OnTrip string `mapstructure:"on_trip"`
}

type SignalConfig struct {
	ShortPeriod        int     `mapstructure:"short_period"`
	LongPeriod         int     `mapstructure:"long_period"`
	RSIPeriod          int     `mapstructure:"rsi_period"`
	CrossoverMarginPct float64 `mapstructure:"crossover_margin_pct"`
	RSIBuyCeiling      float64 `mapstructure:"rsi_buy_ceiling"`
	RSISellFloor       float64 `mapstructure:"rsi_sell_floor"`
}

type RiskConfig struct {
	RiskPerTradePct   float64 `mapstructure:"risk_per_trade_pct"`
	MinTradeNotional  float64 `mapstructure:"min_trade_notional"`
	QuantityPrecision int     `mapstructure:"quantity_precision"`
	TrailingStopPct   float64 `mapstructure:"trailing_stop_pct"`
	MaxDrawdownPct    float64 `mapstructure:"max_drawdown_pct"`
}

type SupervisorConfig struct {
	Interval string `mapstructure:"interval"`
}

type WatchlistConfig struct {
	// Pairs is the inline watchlist, in declaration order.
	Pairs []string `mapstructure:"pairs"`
	// Path, when set, points at a YAML file holding the watchlist; the file
	// is watched and reloaded on change, overriding Pairs.
	Path string `mapstructure:"path"`
}

type NotifyConfig struct {
	TelegramBotToken string `mapstructure:"telegram_bot_token"`
	TelegramChatID   string `mapstructure:"telegram_chat_id"`
}

const (
	OnTripHaltEntries = "halt_entries"
	OnTripHaltEngine  = "halt_engine"
)

func (r RiskConfig) RiskFraction() float64         { return r.RiskPerTradePct / 100 }
func (r RiskConfig) TrailingStopFraction() float64 { return r.TrailingStopPct / 100 }
func (r RiskConfig) MaxDrawdownFraction() float64  { return r.MaxDrawdownPct / 100 }

func (s SignalConfig) CrossoverMarginFraction() float64 { return s.CrossoverMarginPct / 100 }
