package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tidemark/internal/book"
	"tidemark/internal/executor"
	"tidemark/internal/gateway/exchange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGateway serves a fixed price per pair and fills every order at the
// current price.
type scriptedGateway struct {
	mu     sync.Mutex
	prices map[string]float64
	orders []string
	failAt map[string]bool
}

func newScriptedGateway() *scriptedGateway {
	return &scriptedGateway{prices: make(map[string]float64), failAt: make(map[string]bool)}
}

func (g *scriptedGateway) setPrice(pair string, price float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prices[pair] = price
}

func (g *scriptedGateway) Name() string { return "scripted" }

func (g *scriptedGateway) GetPrice(_ context.Context, pair string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failAt[pair] {
		return 0, &exchange.Error{Kind: exchange.KindTransient, Op: "GetPrice", Err: errors.New("down")}
	}
	p, ok := g.prices[pair]
	if !ok {
		return 0, &exchange.Error{Kind: exchange.KindUnknown, Op: "GetPrice", Err: errors.New("no price")}
	}
	return p, nil
}

func (g *scriptedGateway) GetRecentPrices(context.Context, string, int) ([]float64, error) {
	return nil, errors.New("not used")
}

func (g *scriptedGateway) GetBalances(context.Context) (map[string]exchange.Balance, error) {
	return nil, errors.New("not used")
}

func (g *scriptedGateway) PlaceMarketOrder(_ context.Context, pair string, side exchange.Side, quantity float64) (exchange.Fill, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders = append(g.orders, pair+":"+string(side))
	return exchange.Fill{OrderID: "o", Price: g.prices[pair], Quantity: quantity}, nil
}

func (g *scriptedGateway) orderLog() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.orders...)
}

func newFixture(t *testing.T) (*Supervisor, *scriptedGateway, *book.Book) {
	t.Helper()
	gw := newScriptedGateway()
	bk := book.New()
	ex := executor.New(gw, bk, 0.02, time.Second)
	sup := New(gw, bk, ex, 0.02, time.Second)
	return sup, gw, bk
}

func TestStopOutFiresExactlyAtThreshold(t *testing.T) {
	sup, gw, bk := newFixture(t)
	require.NoError(t, bk.Open(book.Position{
		Pair: "BTC-USDT", Quantity: 1, EntryPrice: 100, HighestPriceSeen: 100, StopPrice: 98,
	}))

	ctx := context.Background()
	// 100 -> 105 -> 103 -> 101: high locks at 105, stop at 102.9; the first
	// price at or below the stop is 101, and the exit fires there, not on 103.
	for _, price := range []float64{100, 105, 103} {
		gw.setPrice("BTC-USDT", price)
		sup.RunCycle(ctx)
		assert.Equal(t, 1, bk.Count(), "no stop-out at price %v", price)
	}
	pos, _ := bk.Get("BTC-USDT")
	assert.Equal(t, 105.0, pos.HighestPriceSeen)
	assert.InDelta(t, 102.9, pos.StopPrice, 1e-9)

	gw.setPrice("BTC-USDT", 101)
	sup.RunCycle(ctx)
	assert.Equal(t, 0, bk.Count())
	assert.Equal(t, []string{"BTC-USDT:sell"}, gw.orderLog())

	trades := bk.TradeTail(0)
	require.Len(t, trades, 1)
	assert.Equal(t, book.OriginTrailingStop, trades[0].Origin)
	assert.InDelta(t, 1.0, trades[0].RealizedProfit, 1e-9) // (101-100)*1
}

func TestUnavailablePriceSkipsPair(t *testing.T) {
	sup, gw, bk := newFixture(t)
	require.NoError(t, bk.Open(book.Position{
		Pair: "BTC-USDT", Quantity: 1, EntryPrice: 100, HighestPriceSeen: 105, StopPrice: 102.9,
	}))
	gw.failAt["BTC-USDT"] = true
	gw.setPrice("BTC-USDT", 50) // would stop out if fetched

	sup.RunCycle(context.Background())

	pos, ok := bk.Get("BTC-USDT")
	require.True(t, ok)
	assert.Equal(t, 105.0, pos.HighestPriceSeen)
	assert.Empty(t, gw.orderLog())
}

func TestStopInvariantAfterEveryCycle(t *testing.T) {
	sup, gw, bk := newFixture(t)
	require.NoError(t, bk.Open(book.Position{
		Pair: "ETH-USDT", Quantity: 1, EntryPrice: 100, HighestPriceSeen: 100, StopPrice: 98,
	}))

	for _, price := range []float64{102, 104, 103.5, 107, 106} {
		gw.setPrice("ETH-USDT", price)
		sup.RunCycle(context.Background())
		pos, ok := bk.Get("ETH-USDT")
		require.True(t, ok)
		assert.InDelta(t, pos.HighestPriceSeen*0.98, pos.StopPrice, 1e-9)
	}
}

func TestMultiplePositionsIndependent(t *testing.T) {
	sup, gw, bk := newFixture(t)
	require.NoError(t, bk.Open(book.Position{Pair: "BTC-USDT", Quantity: 1, EntryPrice: 100, HighestPriceSeen: 100, StopPrice: 98}))
	require.NoError(t, bk.Open(book.Position{Pair: "ETH-USDT", Quantity: 2, EntryPrice: 50, HighestPriceSeen: 50, StopPrice: 49}))

	gw.setPrice("BTC-USDT", 97) // below its 98 stop
	gw.setPrice("ETH-USDT", 52) // comfortably above

	sup.RunCycle(context.Background())

	assert.Equal(t, 1, bk.Count())
	_, btcOpen := bk.Get("BTC-USDT")
	assert.False(t, btcOpen)
	eth, ethOpen := bk.Get("ETH-USDT")
	require.True(t, ethOpen)
	assert.Equal(t, 52.0, eth.HighestPriceSeen)
}

func TestRunStopsOnCancel(t *testing.T) {
	sup, _, _ := newFixture(t)
	sup.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("supervisor did not stop on cancel")
	}
}
