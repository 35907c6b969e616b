// Package engine runs the main trading loop: refresh equity, evaluate the
// drawdown breaker, score every watched pair, rank signals, and enter or
// exit positions through the executor. The trailing-stop supervisor runs
// separately; the two meet only at the position book.
package engine

import (
	"context"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"tidemark/internal/book"
	"tidemark/internal/breaker"
	"tidemark/internal/executor"
	"tidemark/internal/gateway/exchange"
	"tidemark/internal/logger"
	symbolpkg "tidemark/internal/pkg/symbol"
	"tidemark/internal/risk"
	"tidemark/internal/scheduler"
	"tidemark/internal/signal"
)

type Config struct {
	QuoteAsset         string
	HistoryWindow      int
	MaxActivePositions int
	Interval           time.Duration
	SignalParams       signal.Params
	// HaltEngineOnTrip stops the whole loop when the breaker fires; the
	// default keeps the loop alive and only blocks new entries.
	HaltEngineOnTrip bool
}

func (c *Config) withDefaults() Config {
	out := *c
	if strings.TrimSpace(out.QuoteAsset) == "" {
		out.QuoteAsset = "USDT"
	}
	if out.HistoryWindow <= 0 {
		out.HistoryWindow = 50
	}
	if out.MaxActivePositions <= 0 {
		out.MaxActivePositions = 3
	}
	if out.Interval <= 0 {
		out.Interval = 5 * time.Minute
	}
	return out
}

type Engine struct {
	cfg      Config
	gateway  exchange.Gateway
	book     *book.Book
	executor *executor.Executor
	sizer    *risk.Sizer
	breaker  *breaker.Breaker

	// pairsFn returns the current watchlist in declaration order; it is the
	// hook for hot-reloaded configuration.
	pairsFn     func() []string
	callTimeout time.Duration
	nowFn       func() time.Time
	onEquity    func(book.EquitySample)
}

// SetEquityHandler installs a callback invoked once per cycle with the fresh
// equity sample, for persistence fan-out.
func (e *Engine) SetEquityHandler(handler func(book.EquitySample)) {
	e.onEquity = handler
}

func New(cfg Config, gw exchange.Gateway, bk *book.Book, ex *executor.Executor, sz *risk.Sizer, br *breaker.Breaker, pairsFn func() []string) *Engine {
	return &Engine{
		cfg:         cfg.withDefaults(),
		gateway:     gw,
		book:        bk,
		executor:    ex,
		sizer:       sz,
		breaker:     br,
		pairsFn:     pairsFn,
		callTimeout: 15 * time.Second,
		nowFn:       time.Now,
	}
}

// Run blocks until ctx is cancelled, or until the breaker trips when
// HaltEngineOnTrip is set.
func (e *Engine) Run(ctx context.Context) {
	loopCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.HaltEngineOnTrip {
		loopCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}
	sched := scheduler.NewIntervalScheduler(loopCtx, "engine", e.cfg.Interval)
	sched.RunImmediately = true
	sched.Start(func(taskCtx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[engine] cycle panic: %v\n%s", r, debug.Stack())
			}
		}()
		e.RunCycle(taskCtx)
		if e.cfg.HaltEngineOnTrip && e.breaker.Tripped() {
			logger.Warnf("[engine] breaker tripped, halting engine loop")
			cancel()
		}
	})
}

// RunCycle executes one full pass. Every failure inside a pass degrades to
// "skip this pair this cycle"; nothing here terminates the loop.
func (e *Engine) RunCycle(ctx context.Context) {
	equity, cash, ok := e.refreshEquity(ctx)
	if !ok {
		logger.Warnf("[engine] balances unavailable, skipping cycle")
		return
	}
	sample := book.EquitySample{Timestamp: e.nowFn(), TotalEquity: equity}
	e.book.RecordEquity(sample)
	state := e.breaker.Observe(equity)
	if e.onEquity != nil {
		e.onEquity(sample)
	}

	signals := e.collectSignals(ctx)
	rankSignals(signals)

	entriesAllowed := state == breaker.StateArmed
	for _, sig := range signals {
		if ctx.Err() != nil {
			return
		}
		switch sig.Direction {
		case signal.DirectionSell:
			// Signal-driven exits keep running even when tripped.
			if _, err := e.executor.ClosePosition(ctx, sig.Pair, book.OriginSignal); err != nil {
				logger.Warnf("[engine] exit %s failed: %v", sig.Pair, err)
			}
		case signal.DirectionBuy:
			if !entriesAllowed {
				continue
			}
			if e.book.Count() >= e.cfg.MaxActivePositions {
				continue
			}
			if e.book.Has(sig.Pair) {
				continue
			}
			qty := e.sizer.Size(sig.ReferencePrice, equity, cash)
			if qty <= 0 {
				logger.Debugf("[engine] %s signal score=%.4f rejected by sizer (cash=%.2f)", sig.Pair, sig.Score, cash)
				continue
			}
			pos, err := e.executor.OpenPosition(ctx, sig.Pair, qty)
			if err != nil {
				logger.Warnf("[engine] entry %s failed: %v", sig.Pair, err)
				continue
			}
			cash -= pos.Quantity * pos.EntryPrice
		}
	}
}

// refreshEquity returns (totalEquity, availableCash, ok). Total equity is
// free+locked quote cash plus every open position marked at its latest
// price; a position whose price is unavailable is marked at entry.
func (e *Engine) refreshEquity(ctx context.Context) (float64, float64, bool) {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	balances, err := e.gateway.GetBalances(callCtx)
	cancel()
	if err != nil {
		logger.Warnf("[engine] balance fetch failed (%s): %v", exchange.KindOf(err), err)
		return 0, 0, false
	}
	quote := balances[e.cfg.QuoteAsset]
	equity := quote.Free + quote.Locked

	for _, pos := range e.book.Snapshot() {
		priceCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		price, err := e.gateway.GetPrice(priceCtx, pos.Pair)
		cancel()
		if err != nil {
			logger.Warnf("[engine] mark price unavailable for %s, using entry: %v", pos.Pair, err)
			price = pos.EntryPrice
		}
		equity += pos.Quantity * price
	}
	return equity, quote.Free, true
}

func (e *Engine) collectSignals(ctx context.Context) []signal.Signal {
	pairs := e.pairsFn()
	out := make([]signal.Signal, 0, len(pairs))
	seen := make(map[string]bool, len(pairs))
	for _, raw := range pairs {
		pair := symbolpkg.Normalize(raw)
		if pair == "" || seen[pair] {
			continue
		}
		seen[pair] = true

		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		closes, err := e.gateway.GetRecentPrices(callCtx, pair, e.cfg.HistoryWindow)
		cancel()
		if err != nil {
			logger.Warnf("[engine] history unavailable for %s, skipping: %v", pair, err)
			continue
		}
		sig := signal.Generate(pair, closes, e.book.Has(pair), e.cfg.SignalParams)
		if sig.Direction == signal.DirectionHold {
			continue
		}
		out = append(out, sig)
	}
	return out
}

// rankSignals orders by score descending. The sort is stable so equal scores
// keep watchlist declaration order.
func rankSignals(signals []signal.Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Score > signals[j].Score
	})
}
