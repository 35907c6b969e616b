// Package breaker implements the drawdown circuit breaker: a latch that
// tracks peak equity and halts new risk-taking once equity falls too far
// below it.
package breaker

import (
	"sync"
	"time"

	"tidemark/internal/logger"
)

type State int

const (
	StateArmed State = iota
	StateTripped
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "ARMED"
	case StateTripped:
		return "TRIPPED"
	default:
		return "UNKNOWN"
	}
}

// Breaker is safe for concurrent use. Once tripped it stays tripped for the
// life of the process; an equity recovery does not re-arm it.
type Breaker struct {
	mu             sync.Mutex
	state          State
	peakEquity     float64
	seenEquity     bool
	maxDrawdownPct float64
	trippedAt      time.Time
	onTrip         func(peak, equity float64)
}

// New creates an armed breaker. maxDrawdownPct is fractional (0.15 == 15%).
func New(maxDrawdownPct float64) *Breaker {
	return &Breaker{maxDrawdownPct: maxDrawdownPct}
}

// SetTripHandler installs a callback fired once, on the armed -> tripped
// transition.
func (b *Breaker) SetTripHandler(handler func(peak, equity float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onTrip = handler
}

// Observe folds a fresh equity reading into the breaker: the peak ratchets
// up, and the latch trips when equity drops below peak*(1-maxDrawdownPct).
// Returns the state after the observation.
func (b *Breaker) Observe(totalEquity float64) State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if totalEquity <= 0 {
		return b.state
	}
	if !b.seenEquity || totalEquity > b.peakEquity {
		b.peakEquity = totalEquity
		b.seenEquity = true
	}
	if b.state == StateArmed && totalEquity < b.peakEquity*(1-b.maxDrawdownPct) {
		b.state = StateTripped
		b.trippedAt = time.Now()
		logger.Warnf("[breaker] drawdown limit breached: equity=%.2f peak=%.2f limit=%.1f%%",
			totalEquity, b.peakEquity, b.maxDrawdownPct*100)
		if b.onTrip != nil {
			go b.onTrip(b.peakEquity, totalEquity)
		}
	}
	return b.state
}

// State returns the current latch state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Tripped reports whether the latch has fired.
func (b *Breaker) Tripped() bool {
	return b.State() == StateTripped
}

// PeakEquity returns the highest equity observed so far.
func (b *Breaker) PeakEquity() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peakEquity
}

// TrippedAt returns when the latch fired, zero if still armed.
func (b *Breaker) TrippedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trippedAt
}
