// Package executor submits sized orders through the exchange gateway and
// applies the result to the position book. The contract: the book changes at
// most once per call, and only after a confirmed fill. A rejected or failed
// order leaves every piece of state exactly as it was.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tidemark/internal/book"
	"tidemark/internal/gateway/exchange"
	"tidemark/internal/logger"

	"github.com/google/uuid"
)

// Executor is safe for concurrent use; position state lives in the book,
// and closes are additionally serialized per pair so the engine's exit
// signals and the supervisor's stop-outs cannot double-sell one position.
type Executor struct {
	gateway         exchange.Gateway
	book            *book.Book
	trailingStopPct float64
	orderTimeout    time.Duration

	closeMu sync.Mutex
	closing map[string]bool

	nowFn   func() time.Time
	onTrade func(book.TradeRecord)
}

func New(gw exchange.Gateway, bk *book.Book, trailingStopPct float64, orderTimeout time.Duration) *Executor {
	if orderTimeout <= 0 {
		orderTimeout = 15 * time.Second
	}
	return &Executor{
		gateway:         gw,
		book:            bk,
		trailingStopPct: trailingStopPct,
		orderTimeout:    orderTimeout,
		closing:         make(map[string]bool),
		nowFn:           time.Now,
	}
}

// claimClose marks pair as having a close in flight. Returns false when
// another caller already holds the claim.
func (e *Executor) claimClose(pair string) bool {
	e.closeMu.Lock()
	defer e.closeMu.Unlock()
	if e.closing[pair] {
		return false
	}
	e.closing[pair] = true
	return true
}

func (e *Executor) releaseClose(pair string) {
	e.closeMu.Lock()
	delete(e.closing, pair)
	e.closeMu.Unlock()
}

// SetTradeHandler installs a callback invoked after every recorded trade,
// for persistence and notification fan-out.
func (e *Executor) SetTradeHandler(handler func(book.TradeRecord)) {
	e.onTrade = handler
}

// OpenPosition buys quantity of pair at market and registers the position.
func (e *Executor) OpenPosition(ctx context.Context, pair string, quantity float64) (book.Position, error) {
	if quantity <= 0 {
		return book.Position{}, fmt.Errorf("executor: non-positive quantity %v for %s", quantity, pair)
	}
	if e.book.Has(pair) {
		return book.Position{}, fmt.Errorf("executor: %s already holds a position", pair)
	}

	orderCtx, cancel := context.WithTimeout(ctx, e.orderTimeout)
	defer cancel()
	fill, err := e.gateway.PlaceMarketOrder(orderCtx, pair, exchange.SideBuy, quantity)
	if err != nil {
		logger.Warnf("[executor] buy %s qty=%v failed (%s): %v", pair, quantity, exchange.KindOf(err), err)
		return book.Position{}, err
	}

	now := e.nowFn()
	pos := book.Position{
		Pair:             pair,
		Quantity:         fill.Quantity,
		EntryPrice:       fill.Price,
		OpenedAt:         now,
		HighestPriceSeen: fill.Price,
		StopPrice:        fill.Price * (1 - e.trailingStopPct),
	}
	if err := e.book.Open(pos); err != nil {
		// A fill happened but the book refused the insert; this indicates a
		// caller racing past its own pre-checks. Surface loudly, record the
		// fill so the ledger stays truthful.
		logger.Errorf("[executor] filled buy for %s but book insert failed: %v", pair, err)
		e.record(book.TradeRecord{
			ID: uuid.NewString(), Pair: pair, Side: string(exchange.SideBuy),
			Price: fill.Price, Quantity: fill.Quantity, Timestamp: now, Origin: book.OriginSignal,
		})
		return book.Position{}, err
	}

	e.record(book.TradeRecord{
		ID: uuid.NewString(), Pair: pair, Side: string(exchange.SideBuy),
		Price: fill.Price, Quantity: fill.Quantity, Timestamp: now, Origin: book.OriginSignal,
	})
	logger.Infof("[executor] opened %s qty=%v entry=%.8g stop=%.8g", pair, fill.Quantity, fill.Price, pos.StopPrice)
	return pos, nil
}

// ClosePosition sells the full held quantity of pair at market and removes
// the position. origin distinguishes signal-driven exits from stop-outs.
func (e *Executor) ClosePosition(ctx context.Context, pair string, origin book.Origin) (book.TradeRecord, error) {
	if !e.claimClose(pair) {
		return book.TradeRecord{}, fmt.Errorf("executor: close already in progress for %s", pair)
	}
	defer e.releaseClose(pair)

	pos, ok := e.book.Get(pair)
	if !ok {
		return book.TradeRecord{}, fmt.Errorf("executor: no open position for %s", pair)
	}

	orderCtx, cancel := context.WithTimeout(ctx, e.orderTimeout)
	defer cancel()
	fill, err := e.gateway.PlaceMarketOrder(orderCtx, pair, exchange.SideSell, pos.Quantity)
	if err != nil {
		logger.Warnf("[executor] sell %s qty=%v failed (%s): %v", pair, pos.Quantity, exchange.KindOf(err), err)
		return book.TradeRecord{}, err
	}

	removed, ok := e.book.Remove(pair)
	if !ok {
		// The position vanished between the fill and the removal. The sell
		// already executed, so record it; quantity drift is an operator issue.
		logger.Errorf("[executor] sold %s but position was already gone", pair)
		removed = pos
	}

	rec := book.TradeRecord{
		ID:             uuid.NewString(),
		Pair:           pair,
		Side:           string(exchange.SideSell),
		Price:          fill.Price,
		Quantity:       fill.Quantity,
		Timestamp:      e.nowFn(),
		RealizedProfit: (fill.Price - removed.EntryPrice) * fill.Quantity,
		HasProfit:      true,
		Origin:         origin,
	}
	e.record(rec)
	logger.Infof("[executor] closed %s qty=%v exit=%.8g pnl=%.4f origin=%s",
		pair, fill.Quantity, fill.Price, rec.RealizedProfit, origin)
	return rec, nil
}

func (e *Executor) record(rec book.TradeRecord) {
	e.book.AppendTrade(rec)
	if e.onTrade != nil {
		e.onTrade(rec)
	}
}
