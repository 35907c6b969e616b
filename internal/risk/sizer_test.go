package risk

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeBasic(t *testing.T) {
	s := NewSizer(0.015, 10, 6)
	// 1.5% of 10000 = 150 budget, price 50 -> 3 units.
	qty := s.Size(50, 10000, 5000)
	assert.InDelta(t, 3.0, qty, 1e-9)
}

func TestSizeCappedByCash(t *testing.T) {
	s := NewSizer(0.5, 10, 6)
	// Half of equity would be 5000 but only 120 cash is free.
	qty := s.Size(100, 10000, 120)
	assert.InDelta(t, 1.2, qty, 1e-9)
}

func TestSizeRejections(t *testing.T) {
	s := NewSizer(0.015, 10, 6)
	assert.Zero(t, s.Size(50, 10000, 9.99), "cash below minimum notional")
	assert.Zero(t, s.Size(0, 10000, 5000), "no reference price")
	assert.Zero(t, s.Size(50, 0, 5000), "no equity")
	// Budget so small the truncated quantity collapses to zero.
	assert.Zero(t, s.Size(1e9, 100, 100))
}

func TestSizeTruncatesToPrecision(t *testing.T) {
	s := NewSizer(0.015, 10, 2)
	// Budget 150 at price 47 = 3.1914893..., truncated to 3.19.
	qty := s.Size(47, 10000, 10000)
	assert.InDelta(t, 3.19, qty, 1e-9)
}

func TestSizeCostNeverExceedsCash(t *testing.T) {
	s := NewSizer(0.02, 10, 6)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		price := 0.01 + rng.Float64()*50000
		equity := 10 + rng.Float64()*1e6
		cash := rng.Float64() * equity
		qty := s.Size(price, equity, cash)
		if qty == 0 {
			continue
		}
		assert.LessOrEqual(t, qty*price, cash*(1+1e-9),
			"price=%v equity=%v cash=%v qty=%v", price, equity, cash, qty)
	}
}
