// Package risk converts equity and cash into bounded order quantities.
package risk

import (
	"github.com/shopspring/decimal"
)

// Sizer applies fixed fractional sizing: each entry risks at most RiskPct of
// total equity, capped by the cash actually available.
type Sizer struct {
	// RiskPct is the fraction of total equity committed per trade (0.015 == 1.5%).
	RiskPct float64
	// MinTradeNotional is the smallest order cost worth submitting, in quote units.
	MinTradeNotional float64
	// QuantityPrecision is the number of decimal places the instrument accepts.
	QuantityPrecision int32
}

func NewSizer(riskPct, minTradeNotional float64, quantityPrecision int32) *Sizer {
	return &Sizer{
		RiskPct:           riskPct,
		MinTradeNotional:  minTradeNotional,
		QuantityPrecision: quantityPrecision,
	}
}

// Size returns the order quantity for an entry at referencePrice, or 0 when
// the trade should not happen. Truncation (never rounding up) keeps the
// resulting cost within availableCash.
func (s *Sizer) Size(referencePrice, totalEquity, availableCash float64) float64 {
	if referencePrice <= 0 || totalEquity <= 0 {
		return 0
	}
	if availableCash < s.MinTradeNotional {
		return 0
	}
	budget := totalEquity * s.RiskPct
	if availableCash < budget {
		budget = availableCash
	}
	if budget <= 0 {
		return 0
	}
	qty := decimal.NewFromFloat(budget).
		Div(decimal.NewFromFloat(referencePrice)).
		Truncate(s.QuantityPrecision)
	if !qty.IsPositive() {
		return 0
	}
	out, _ := qty.Float64()
	return out
}
