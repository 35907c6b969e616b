package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"BTC-USDT", "BTC-USDT"},
		{"btc/usdt", "BTC-USDT"},
		{" eth_usdt ", "ETH-USDT"},
		{"", ""},
		{"BTCUSDT", ""},
		{"-USDT", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "input=%q", tc.in)
	}
}

func TestSplit(t *testing.T) {
	base, quote := Split("SOL-USDT")
	assert.Equal(t, "SOL", base)
	assert.Equal(t, "USDT", quote)

	assert.Equal(t, "DOGE", Base("doge/usdt"))
	assert.Equal(t, "USDT", Quote("doge/usdt"))
}

func TestBinanceConverter(t *testing.T) {
	assert.Equal(t, "BTCUSDT", Binance.ToExchange("BTC-USDT"))
	assert.Equal(t, "ETHUSDT", Binance.ToExchange("eth/usdt"))
}
