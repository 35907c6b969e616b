package symbol

import "strings"

type BinanceConverter struct{}

// ToExchange converts the canonical "BTC-USDT" form into the concatenated
// symbol Binance expects ("BTCUSDT").
func (BinanceConverter) ToExchange(pair string) string {
	s := Normalize(pair)
	return strings.ReplaceAll(s, "-", "")
}

var Binance = BinanceConverter{}
