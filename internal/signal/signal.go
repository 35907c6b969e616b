// Package signal converts a pair's recent closing prices into a directional
// trade recommendation with a relative strength score. Generation is a pure
// function over its inputs; no I/O, no shared state.
package signal

import (
	"github.com/markcheno/go-talib"
)

type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
	DirectionHold Direction = "hold"
)

// Signal is the result of scoring one pair for one cycle. It is ephemeral
// and produced fresh every cycle.
type Signal struct {
	Pair           string
	Direction      Direction
	Score          float64
	ReferencePrice float64
}

type Params struct {
	ShortPeriod        int
	LongPeriod         int
	RSIPeriod          int
	CrossoverMarginPct float64 // fractional, 0.01 == 1%
	RSIBuyCeiling      float64
	RSISellFloor       float64
}

func DefaultParams() Params {
	return Params{
		ShortPeriod:        10,
		LongPeriod:         30,
		RSIPeriod:          14,
		CrossoverMarginPct: 0.01,
		RSIBuyCeiling:      60,
		RSISellFloor:       40,
	}
}

// Generate scores one pair. holding reports whether the pair currently has an
// open position: a held pair never gets a fresh buy, a flat pair never gets a
// sell.
func Generate(pair string, closes []float64, holding bool, p Params) Signal {
	hold := Signal{Pair: pair, Direction: DirectionHold}
	if len(closes) > 0 {
		hold.ReferencePrice = closes[len(closes)-1]
	}
	if p.ShortPeriod <= 0 || p.LongPeriod <= p.ShortPeriod {
		return hold
	}
	// Not enough history is normal during warmup, not an error.
	if len(closes) < p.LongPeriod || len(closes) <= p.RSIPeriod {
		return hold
	}

	maShort := lastValue(talib.Sma(closes, p.ShortPeriod))
	maLong := lastValue(talib.Sma(closes, p.LongPeriod))
	if maShort <= 0 || maLong <= 0 {
		return hold
	}
	// RSIPeriod <= 0 disables the momentum filter; a neutral reading keeps
	// the score formula well defined.
	rsi := 50.0
	if p.RSIPeriod > 0 {
		rsi = lastValue(talib.Rsi(closes, p.RSIPeriod))
	}
	last := closes[len(closes)-1]

	switch {
	case !holding && maShort > maLong*(1+p.CrossoverMarginPct) && rsi < p.RSIBuyCeiling:
		return Signal{
			Pair:           pair,
			Direction:      DirectionBuy,
			Score:          (maShort / maLong) * (p.RSIBuyCeiling - rsi) / p.RSIBuyCeiling,
			ReferencePrice: last,
		}
	case holding && maShort < maLong*(1-p.CrossoverMarginPct) && rsi > p.RSISellFloor:
		return Signal{
			Pair:           pair,
			Direction:      DirectionSell,
			Score:          (maLong / maShort) * (rsi - p.RSISellFloor) / (100 - p.RSISellFloor),
			ReferencePrice: last,
		}
	}
	return hold
}

func lastValue(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}
