package breaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTripsAtDrawdownLimit(t *testing.T) {
	b := New(0.20)

	assert.Equal(t, StateArmed, b.Observe(1000))
	assert.Equal(t, StateArmed, b.Observe(1200))
	assert.Equal(t, 1200.0, b.PeakEquity())

	// 1000 is a 16.7% drawdown from 1200, still inside the limit.
	assert.Equal(t, StateArmed, b.Observe(1000))

	// 950 is 20.8% below peak: the latch fires here.
	assert.Equal(t, StateTripped, b.Observe(950))
	assert.True(t, b.Tripped())
	assert.False(t, b.TrippedAt().IsZero())
}

func TestTrippedIsTerminal(t *testing.T) {
	b := New(0.10)
	b.Observe(1000)
	assert.Equal(t, StateTripped, b.Observe(800))

	// Full recovery does not re-arm within the run.
	assert.Equal(t, StateTripped, b.Observe(1500))
	assert.True(t, b.Tripped())
	// Peak still ratchets for reporting purposes.
	assert.Equal(t, 1500.0, b.PeakEquity())
}

func TestExactBoundaryDoesNotTrip(t *testing.T) {
	b := New(0.20)
	b.Observe(1000)
	// Exactly peak*(1-maxDrawdownPct) is not a breach; the trip needs a
	// strict drop below the threshold.
	assert.Equal(t, StateArmed, b.Observe(800))
	assert.Equal(t, StateTripped, b.Observe(799.99))
}

func TestIgnoresNonPositiveEquity(t *testing.T) {
	b := New(0.20)
	b.Observe(1000)
	assert.Equal(t, StateArmed, b.Observe(0))
	assert.Equal(t, StateArmed, b.Observe(-50))
	assert.Equal(t, 1000.0, b.PeakEquity())
}

func TestTripHandlerFires(t *testing.T) {
	b := New(0.20)
	fired := make(chan [2]float64, 1)
	b.SetTripHandler(func(peak, equity float64) {
		fired <- [2]float64{peak, equity}
	})
	b.Observe(1200)
	b.Observe(950)

	got := <-fired
	assert.Equal(t, 1200.0, got[0])
	assert.Equal(t, 950.0, got[1])
}
