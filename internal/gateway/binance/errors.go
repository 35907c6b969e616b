package binance

import (
	"context"
	"errors"
	"net"

	"tidemark/internal/gateway/exchange"

	"github.com/adshao/go-binance/v2/common"
)

// classify maps SDK failures onto exchange error kinds. Binance signals
// everything through numeric API codes, so the mapping lives here and the
// rest of the system only sees kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	return &exchange.Error{Kind: kindFor(err), Op: op, Err: err}
}

func kindFor(err error) exchange.Kind {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return kindForCode(apiErr.Code)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return exchange.KindTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return exchange.KindTransient
	}
	return exchange.KindUnknown
}

func kindForCode(code int64) exchange.Kind {
	switch code {
	case -1003, -1015: // TOO_MANY_REQUESTS, TOO_MANY_ORDERS
		return exchange.KindRateLimited
	case -1021, -1022, -2014, -2015: // timestamp/signature/API-key failures
		return exchange.KindAuthFailure
	case -1013, -1100, -1111, -1121, -2010: // filter/parameter violations, order rejected
		return exchange.KindRejected
	}
	if code <= -1000 && code > -1010 { // server-side errors, disconnects, timeouts
		return exchange.KindTransient
	}
	return exchange.KindUnknown
}
