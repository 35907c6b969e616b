// Package binance implements the exchange.Gateway interface on top of the
// go-binance spot REST API.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tidemark/internal/gateway/exchange"
	symbolpkg "tidemark/internal/pkg/symbol"

	gobinance "github.com/adshao/go-binance/v2"
)

const maxKlineLimit = 1000

// Gateway talks to Binance spot. It is safe for concurrent use; the
// underlying SDK client carries no mutable per-request state.
type Gateway struct {
	cfg    Config
	client *gobinance.Client
}

func New(cfg Config) (*Gateway, error) {
	final := cfg.withDefaults()
	client := gobinance.NewClient(final.APIKey, final.APISecret)
	client.BaseURL = final.RESTBaseURL
	httpClient := &http.Client{Timeout: final.HTTPTimeout}
	if final.ProxyEnabled && final.RESTProxyURL != "" {
		proxyURL, err := url.Parse(final.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	client.HTTPClient = httpClient
	return &Gateway{cfg: final, client: client}, nil
}

func (g *Gateway) Name() string { return "binance" }

func (g *Gateway) GetPrice(ctx context.Context, pair string) (float64, error) {
	clean, err := cleanPair(pair)
	if err != nil {
		return 0, err
	}
	prices, err := g.client.NewListPricesService().Symbol(clean).Do(ctx)
	if err != nil {
		return 0, classify("GetPrice", err)
	}
	for _, p := range prices {
		if p == nil || p.Symbol != clean {
			continue
		}
		price := parseFloat(p.Price)
		if price <= 0 {
			return 0, &exchange.Error{Kind: exchange.KindUnknown, Op: "GetPrice", Err: fmt.Errorf("non-positive price %q for %s", p.Price, clean)}
		}
		return price, nil
	}
	return 0, &exchange.Error{Kind: exchange.KindUnknown, Op: "GetPrice", Err: fmt.Errorf("no ticker for %s", clean)}
}

func (g *Gateway) GetRecentPrices(ctx context.Context, pair string, window int) ([]float64, error) {
	clean, err := cleanPair(pair)
	if err != nil {
		return nil, err
	}
	if window <= 0 {
		window = 100
	}
	if window > maxKlineLimit {
		window = maxKlineLimit
	}
	kls, err := g.client.NewKlinesService().
		Symbol(clean).
		Interval(g.klineInterval()).
		Limit(window).
		Do(ctx)
	if err != nil {
		return nil, classify("GetRecentPrices", err)
	}
	out := make([]float64, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, parseFloat(kl.Close))
	}
	return out, nil
}

func (g *Gateway) GetBalances(ctx context.Context) (map[string]exchange.Balance, error) {
	account, err := g.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, classify("GetBalances", err)
	}
	out := make(map[string]exchange.Balance, len(account.Balances))
	for _, b := range account.Balances {
		asset := strings.ToUpper(strings.TrimSpace(b.Asset))
		if asset == "" {
			continue
		}
		free := parseFloat(b.Free)
		locked := parseFloat(b.Locked)
		if free == 0 && locked == 0 {
			continue
		}
		out[asset] = exchange.Balance{Free: free, Locked: locked}
	}
	return out, nil
}

func (g *Gateway) PlaceMarketOrder(ctx context.Context, pair string, side exchange.Side, quantity float64) (exchange.Fill, error) {
	clean, err := cleanPair(pair)
	if err != nil {
		return exchange.Fill{}, err
	}
	if quantity <= 0 {
		return exchange.Fill{}, &exchange.Error{Kind: exchange.KindRejected, Op: "PlaceMarketOrder", Err: fmt.Errorf("non-positive quantity %v", quantity)}
	}
	sideType, err := toSideType(side)
	if err != nil {
		return exchange.Fill{}, err
	}
	resp, err := g.client.NewCreateOrderService().
		Symbol(clean).
		Side(sideType).
		Type(gobinance.OrderTypeMarket).
		Quantity(formatQuantity(quantity)).
		Do(ctx)
	if err != nil {
		return exchange.Fill{}, classify("PlaceMarketOrder", err)
	}
	fill, err := summarizeFills(resp)
	if err != nil {
		return exchange.Fill{}, &exchange.Error{Kind: exchange.KindUnknown, Op: "PlaceMarketOrder", Err: err}
	}
	return fill, nil
}

// 1m candles are enough: the signal layer only wants a run of recent
// closes, and the engine re-fetches every cycle anyway.
func (g *Gateway) klineInterval() string { return "1m" }

// summarizeFills reduces a multi-fill order response to one average-priced
// fill. Market orders on thin books routinely split across price levels.
func summarizeFills(resp *gobinance.CreateOrderResponse) (exchange.Fill, error) {
	if resp == nil {
		return exchange.Fill{}, fmt.Errorf("nil order response")
	}
	executed := parseFloat(resp.ExecutedQuantity)
	if executed <= 0 {
		return exchange.Fill{}, fmt.Errorf("order %d reported zero executed quantity", resp.OrderID)
	}
	var notional float64
	for _, f := range resp.Fills {
		if f == nil {
			continue
		}
		notional += parseFloat(f.Price) * parseFloat(f.Quantity)
	}
	if notional <= 0 {
		notional = parseFloat(resp.CummulativeQuoteQuantity)
	}
	if notional <= 0 {
		return exchange.Fill{}, fmt.Errorf("order %d reported zero notional", resp.OrderID)
	}
	return exchange.Fill{
		OrderID:  strconv.FormatInt(resp.OrderID, 10),
		Price:    notional / executed,
		Quantity: executed,
	}, nil
}

func toSideType(side exchange.Side) (gobinance.SideType, error) {
	switch side {
	case exchange.SideBuy:
		return gobinance.SideTypeBuy, nil
	case exchange.SideSell:
		return gobinance.SideTypeSell, nil
	default:
		return "", &exchange.Error{Kind: exchange.KindRejected, Op: "PlaceMarketOrder", Err: fmt.Errorf("unsupported side %q", side)}
	}
}

func cleanPair(pair string) (string, error) {
	normalized := symbolpkg.Normalize(pair)
	if normalized == "" {
		return "", &exchange.Error{Kind: exchange.KindRejected, Op: "cleanPair", Err: fmt.Errorf("invalid pair %q", pair)}
	}
	return symbolpkg.Binance.ToExchange(normalized), nil
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
