package exchange

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := &Error{Kind: KindRateLimited, Op: "GetPrice", Err: errors.New("too many requests")}

	assert.Equal(t, KindRateLimited, KindOf(base))
	assert.Equal(t, KindRateLimited, KindOf(fmt.Errorf("cycle failed: %w", base)))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestErrorFormat(t *testing.T) {
	e := &Error{Kind: KindRejected, Op: "PlaceMarketOrder", Err: errors.New("insufficient balance")}
	assert.Equal(t, "exchange: PlaceMarketOrder: rejected: insufficient balance", e.Error())
	assert.Equal(t, "insufficient balance", e.Unwrap().Error())

	bare := &Error{Kind: KindTransient, Op: "GetBalances"}
	assert.Equal(t, "exchange: GetBalances: transient", bare.Error())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "unknown", KindUnknown.String())
	assert.Equal(t, "transient", KindTransient.String())
	assert.Equal(t, "auth_failure", KindAuthFailure.String())
}
