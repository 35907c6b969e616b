// Package exchange defines the abstraction the trading core uses to talk to
// an exchange backend. The core never sees raw exchange error codes or wire
// formats; implementations map those onto the types defined here.
package exchange

import "context"

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

type Gateway interface {
	Name() string

	// GetPrice returns the latest traded price for a pair.
	GetPrice(ctx context.Context, pair string) (float64, error)

	// GetRecentPrices returns up to window closing prices, oldest first.
	GetRecentPrices(ctx context.Context, pair string, window int) ([]float64, error)

	// GetBalances returns per-asset balances.
	GetBalances(ctx context.Context) (map[string]Balance, error)

	// PlaceMarketOrder submits a market order and returns the confirmed fill.
	// An error means nothing filled as far as the caller is concerned.
	PlaceMarketOrder(ctx context.Context, pair string, side Side, quantity float64) (Fill, error)
}

// Balance is a single asset balance.
type Balance struct {
	Free   float64
	Locked float64
}

// Fill is a confirmed market order execution.
type Fill struct {
	OrderID  string
	Price    float64
	Quantity float64
}
