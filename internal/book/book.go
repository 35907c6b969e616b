// Package book holds the authoritative in-memory record of open positions,
// trade history, and equity samples. It is the single piece of shared mutable
// state in the engine: the trading loop and the trailing-stop supervisor both
// read and write it concurrently, so every operation takes the book's lock and
// callers only ever see copies. The lock is never held across a network call.
package book

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Origin tags how a trade came about.
type Origin string

const (
	OriginSignal       Origin = "signal"
	OriginTrailingStop Origin = "trailing_stop"
)

// Position is one open holding. StopPrice always equals
// HighestPriceSeen * (1 - trailingStopPct); HighestPriceSeen never decreases
// for the life of the position.
type Position struct {
	Pair             string
	Quantity         float64
	EntryPrice       float64
	OpenedAt         time.Time
	HighestPriceSeen float64
	StopPrice        float64
}

// TradeRecord is an append-only log entry. RealizedProfit is only meaningful
// on exits (HasProfit true).
type TradeRecord struct {
	ID             string
	Pair           string
	Side           string
	Price          float64
	Quantity       float64
	Timestamp      time.Time
	RealizedProfit float64
	HasProfit      bool
	Origin         Origin
}

// EquitySample is one mark-to-market observation of total equity.
type EquitySample struct {
	Timestamp   time.Time
	TotalEquity float64
}

// Book is safe for concurrent use.
type Book struct {
	mu        sync.Mutex
	positions map[string]*Position
	trades    []TradeRecord
	equity    []EquitySample

	tradeCap  int
	equityCap int
}

const (
	defaultTradeCap  = 500
	defaultEquityCap = 288
)

func New() *Book {
	return NewWithCaps(defaultTradeCap, defaultEquityCap)
}

func NewWithCaps(tradeCap, equityCap int) *Book {
	if tradeCap <= 0 {
		tradeCap = defaultTradeCap
	}
	if equityCap <= 0 {
		equityCap = defaultEquityCap
	}
	return &Book{
		positions: make(map[string]*Position),
		tradeCap:  tradeCap,
		equityCap: equityCap,
	}
}

// Open inserts a position if the pair is currently flat; a second open for
// the same pair is an error, never an overwrite.
func (b *Book) Open(pos Position) error {
	if pos.Pair == "" {
		return fmt.Errorf("book: position without pair")
	}
	if pos.Quantity <= 0 {
		return fmt.Errorf("book: position %s with non-positive quantity %v", pos.Pair, pos.Quantity)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.positions[pos.Pair]; exists {
		return fmt.Errorf("book: position already open for %s", pos.Pair)
	}
	p := pos
	b.positions[pos.Pair] = &p
	return nil
}

// Get returns a copy of the position for pair, if any.
func (b *Book) Get(pair string) (Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[pair]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Has reports whether pair currently holds an open position.
func (b *Book) Has(pair string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.positions[pair]
	return ok
}

// Remove deletes the position for pair and returns its final state.
func (b *Book) Remove(pair string) (Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[pair]
	if !ok {
		return Position{}, false
	}
	delete(b.positions, pair)
	return *p, true
}

// RaiseWatermark folds a fresh price into the position's high-water mark and
// recomputes the stop from it, atomically. The watermark only ever moves up;
// a price below the current high leaves it (and the stop) untouched. Returns
// the post-update position.
func (b *Book) RaiseWatermark(pair string, price, trailingStopPct float64) (Position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[pair]
	if !ok {
		return Position{}, false
	}
	if price > p.HighestPriceSeen {
		p.HighestPriceSeen = price
		p.StopPrice = p.HighestPriceSeen * (1 - trailingStopPct)
	}
	return *p, true
}

// Snapshot returns copies of all open positions, ordered by pair for
// deterministic output.
func (b *Book) Snapshot() []Position {
	b.mu.Lock()
	out := make([]Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, *p)
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Pair < out[j].Pair })
	return out
}

// Count returns the number of open positions.
func (b *Book) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.positions)
}

// AppendTrade records a trade, evicting the oldest entries past the cap.
func (b *Book) AppendTrade(rec TradeRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trades = append(b.trades, rec)
	if len(b.trades) > b.tradeCap {
		b.trades = b.trades[len(b.trades)-b.tradeCap:]
	}
}

// TradeTail returns up to n most recent trades, oldest first. n <= 0 means all.
func (b *Book) TradeTail(n int) []TradeRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return tail(b.trades, n)
}

// RecordEquity appends an equity sample, evicting past the cap.
func (b *Book) RecordEquity(sample EquitySample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.equity = append(b.equity, sample)
	if len(b.equity) > b.equityCap {
		b.equity = b.equity[len(b.equity)-b.equityCap:]
	}
}

// EquityTail returns up to n most recent equity samples, oldest first.
// n <= 0 means all.
func (b *Book) EquityTail(n int) []EquitySample {
	b.mu.Lock()
	defer b.mu.Unlock()
	return tail(b.equity, n)
}

func tail[T any](src []T, n int) []T {
	if n <= 0 || n > len(src) {
		n = len(src)
	}
	out := make([]T, n)
	copy(out, src[len(src)-n:])
	return out
}
