// Package app wires configuration into running components: gateway, position
// book, engine loop, trailing-stop supervisor, HTTP server, and persistence.
package app

import (
	"context"
	"fmt"
	"time"

	"tidemark/internal/book"
	"tidemark/internal/breaker"
	tmcfg "tidemark/internal/config"
	"tidemark/internal/config/loader"
	"tidemark/internal/engine"
	"tidemark/internal/executor"
	"tidemark/internal/gateway/binance"
	"tidemark/internal/gateway/exchange"
	"tidemark/internal/logger"
	"tidemark/internal/notifier"
	"tidemark/internal/risk"
	"tidemark/internal/scheduler"
	"tidemark/internal/signal"
	"tidemark/internal/store/sqlite"
	"tidemark/internal/supervisor"
	httpapi "tidemark/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *tmcfg.Config
	gateway    exchange.Gateway
	book       *book.Book
	breaker    *breaker.Breaker
	engine     *engine.Engine
	supervisor *supervisor.Supervisor
	httpServer *httpapi.Server
	store      *sqlite.Store
	watchlist  *loader.WatchlistLoader
	telegram   *notifier.Telegram
}

// NewApp builds the application from config without starting anything.
func NewApp(cfg *tmcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	gw, err := buildGateway(cfg)
	if err != nil {
		return nil, fmt.Errorf("build gateway: %w", err)
	}
	watchlist, err := buildWatchlist(cfg)
	if err != nil {
		return nil, fmt.Errorf("build watchlist: %w", err)
	}
	st, err := sqlite.New(cfg.App.DataPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	bk := book.New()
	br := breaker.New(cfg.Risk.MaxDrawdownFraction())
	tg := notifier.NewTelegram(cfg.Notify.TelegramBotToken, cfg.Notify.TelegramChatID)

	ex := executor.New(gw, bk, cfg.Risk.TrailingStopFraction(), 15*time.Second)
	ex.SetTradeHandler(func(rec book.TradeRecord) {
		persistTrade(st, rec)
		if err := tg.NotifyTrade(rec); err != nil {
			logger.Warnf("[app] trade notification failed: %v", err)
		}
	})
	br.SetTripHandler(func(peak, equity float64) {
		if err := tg.NotifyBreakerTrip(peak, equity); err != nil {
			logger.Warnf("[app] breaker notification failed: %v", err)
		}
	})

	sz := risk.NewSizer(cfg.Risk.RiskFraction(), cfg.Risk.MinTradeNotional, int32(cfg.Risk.QuantityPrecision))

	engineInterval, _ := scheduler.ParseIntervalDuration(cfg.Engine.Interval)
	supInterval, _ := scheduler.ParseIntervalDuration(cfg.Supervisor.Interval)

	eng := engine.New(engine.Config{
		QuoteAsset:         cfg.Exchange.QuoteAsset,
		HistoryWindow:      cfg.Engine.HistoryWindow,
		MaxActivePositions: cfg.Engine.MaxActivePositions,
		Interval:           engineInterval,
		SignalParams: signal.Params{
			ShortPeriod:        cfg.Signal.ShortPeriod,
			LongPeriod:         cfg.Signal.LongPeriod,
			RSIPeriod:          cfg.Signal.RSIPeriod,
			CrossoverMarginPct: cfg.Signal.CrossoverMarginFraction(),
			RSIBuyCeiling:      cfg.Signal.RSIBuyCeiling,
			RSISellFloor:       cfg.Signal.RSISellFloor,
		},
		HaltEngineOnTrip: cfg.Engine.OnTrip == tmcfg.OnTripHaltEngine,
	}, gw, bk, ex, sz, br, watchlist.Pairs)

	eng.SetEquityHandler(func(sample book.EquitySample) {
		writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := st.InsertEquity(writeCtx, sqlite.EquityRow{
			TotalEquity: sample.TotalEquity,
			PeakEquity:  br.PeakEquity(),
			SampledAt:   sample.Timestamp,
		})
		if err != nil {
			logger.Warnf("[app] equity persist failed: %v", err)
		}
	})

	sup := supervisor.New(gw, bk, ex, cfg.Risk.TrailingStopFraction(), supInterval)

	httpServer, err := httpapi.NewServer(httpapi.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Book:    bk,
		Breaker: br,
		Pairs:   watchlist.Pairs,
	})
	if err != nil {
		return nil, fmt.Errorf("build http server: %w", err)
	}

	return &App{
		cfg:        cfg,
		gateway:    gw,
		book:       bk,
		breaker:    br,
		engine:     eng,
		supervisor: sup,
		httpServer: httpServer,
		store:      st,
		watchlist:  watchlist,
		telegram:   tg,
	}, nil
}

// Run starts every component and blocks until ctx is cancelled or one of
// them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.store.Close()

	logger.Infof("tidemark starting: %d pairs, engine=%s supervisor=%s http=%s",
		len(a.watchlist.Pairs()), a.cfg.Engine.Interval, a.cfg.Supervisor.Interval, a.cfg.App.HTTPAddr)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.httpServer.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		a.engine.Run(ctx)
		return nil
	})
	group.Go(func() error {
		a.supervisor.Run(ctx)
		return nil
	})

	return group.Wait()
}

// Book exposes the position book (for testing harnesses).
func (a *App) Book() *book.Book {
	if a == nil {
		return nil
	}
	return a.book
}

func buildGateway(cfg *tmcfg.Config) (exchange.Gateway, error) {
	switch cfg.Exchange.Name {
	case "binance":
		return binance.New(binance.Config{
			APIKey:       cfg.Exchange.APIKey,
			APISecret:    cfg.Exchange.APISecret,
			RESTBaseURL:  cfg.Exchange.RESTBaseURL,
			HTTPTimeout:  time.Duration(cfg.Exchange.HTTPTimeoutSeconds) * time.Second,
			ProxyEnabled: cfg.Exchange.ProxyEnabled,
			RESTProxyURL: cfg.Exchange.RESTProxyURL,
		})
	default:
		return nil, fmt.Errorf("unsupported exchange: %q", cfg.Exchange.Name)
	}
}

func buildWatchlist(cfg *tmcfg.Config) (*loader.WatchlistLoader, error) {
	if cfg.Watchlist.Path != "" {
		return loader.NewWatchlistLoader(cfg.Watchlist.Path)
	}
	return loader.NewStaticLoader(cfg.Watchlist.Pairs), nil
}

func persistTrade(st *sqlite.Store, rec book.TradeRecord) {
	var pnl *float64
	if rec.HasProfit {
		v := rec.RealizedProfit
		pnl = &v
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := st.InsertTrade(writeCtx, sqlite.TradeRow{
		TradeID:     rec.ID,
		Pair:        rec.Pair,
		Side:        rec.Side,
		Price:       rec.Price,
		Quantity:    rec.Quantity,
		RealizedPnL: pnl,
		Origin:      string(rec.Origin),
		ExecutedAt:  rec.Timestamp,
	}, nil)
	if err != nil {
		logger.Warnf("[app] trade persist failed (%s): %v", rec.ID, err)
	}
}
