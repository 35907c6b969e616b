package exchange

import (
	"errors"
	"fmt"
)

// Kind classifies gateway failures so callers can pick a reaction without
// inspecting backend-specific codes.
type Kind int

const (
	// KindUnknown is the fallback for failures that do not fit any other kind.
	KindUnknown Kind = iota
	// KindTransient covers network hiccups and backend 5xx conditions; safe to retry.
	KindTransient
	// KindRejected means the backend understood the request and refused it
	// (insufficient balance, filter violation). Retrying unchanged will not help.
	KindRejected
	// KindAuthFailure means credentials are bad or lack permission.
	KindAuthFailure
	// KindRateLimited means the backend is throttling us.
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRejected:
		return "rejected"
	case KindAuthFailure:
		return "auth_failure"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Error wraps a backend failure with its classification and the operation
// that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exchange: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("exchange: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from err, returning KindUnknown for
// errors that did not come from a gateway.
func KindOf(err error) Kind {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindUnknown
}
