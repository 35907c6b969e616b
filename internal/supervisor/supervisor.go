// Package supervisor runs the trailing-stop watchdog: on its own cadence,
// independent of the trading loop, it re-prices every open position, ratchets
// the high-water mark, and liquidates anything trading at or below its stop.
package supervisor

import (
	"context"
	"runtime/debug"
	"time"

	"tidemark/internal/book"
	"tidemark/internal/executor"
	"tidemark/internal/gateway/exchange"
	"tidemark/internal/logger"
	"tidemark/internal/scheduler"
)

type Supervisor struct {
	gateway         exchange.Gateway
	book            *book.Book
	executor        *executor.Executor
	trailingStopPct float64
	interval        time.Duration
	priceTimeout    time.Duration
}

func New(gw exchange.Gateway, bk *book.Book, ex *executor.Executor, trailingStopPct float64, interval time.Duration) *Supervisor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Supervisor{
		gateway:         gw,
		book:            bk,
		executor:        ex,
		trailingStopPct: trailingStopPct,
		interval:        interval,
		priceTimeout:    10 * time.Second,
	}
}

// Run blocks until ctx is cancelled, executing one cycle per interval.
func (s *Supervisor) Run(ctx context.Context) {
	sched := scheduler.NewIntervalScheduler(ctx, "trailing-stop", s.interval)
	sched.RunImmediately = true
	sched.Start(func(taskCtx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[supervisor] cycle panic: %v\n%s", r, debug.Stack())
			}
		}()
		s.RunCycle(taskCtx)
	})
}

// RunCycle walks a snapshot of the open positions. Price fetches happen
// outside the book lock; a pair whose price is unavailable is skipped with
// no state change.
func (s *Supervisor) RunCycle(ctx context.Context) {
	for _, pos := range s.book.Snapshot() {
		if ctx.Err() != nil {
			return
		}
		s.checkPosition(ctx, pos.Pair)
	}
}

func (s *Supervisor) checkPosition(ctx context.Context, pair string) {
	priceCtx, cancel := context.WithTimeout(ctx, s.priceTimeout)
	price, err := s.gateway.GetPrice(priceCtx, pair)
	cancel()
	if err != nil {
		logger.Warnf("[supervisor] price unavailable for %s, skipping: %v", pair, err)
		return
	}

	pos, ok := s.book.RaiseWatermark(pair, price, s.trailingStopPct)
	if !ok {
		// Closed between snapshot and here; nothing to do.
		return
	}
	if price > pos.StopPrice {
		return
	}

	logger.Infof("[supervisor] stop-out %s: price=%.8g stop=%.8g high=%.8g",
		pair, price, pos.StopPrice, pos.HighestPriceSeen)
	if _, err := s.executor.ClosePosition(ctx, pair, book.OriginTrailingStop); err != nil {
		// The position stays in the book; the next cycle retries.
		logger.Warnf("[supervisor] stop-out sell failed for %s: %v", pair, err)
	}
}
