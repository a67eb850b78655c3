package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed price fetch so callers can pick a backoff policy.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindRateLimited     Kind = "rate_limited"
	KindNoData          Kind = "no_data"
	KindNetwork         Kind = "network"
	KindUnavailable     Kind = "unavailable"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrRateLimited     = errors.New("rate limited")
	ErrNoData          = errors.New("no data")
	ErrNetwork         = errors.New("network failure")
	ErrUnavailable     = errors.New("price unavailable")
)

var sentinels = map[Kind]error{
	KindUnauthenticated: ErrUnauthenticated,
	KindRateLimited:     ErrRateLimited,
	KindNoData:          ErrNoData,
	KindNetwork:         ErrNetwork,
	KindUnavailable:     ErrUnavailable,
}

// Error is the failure returned by every Fetcher.
type Error struct {
	Provider string
	Kind     Kind
	// Status is the upstream HTTP status, 0 when no response was received.
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (http %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match an *Error against the Err* sentinels.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// NewError builds an *Error.
func NewError(provider string, kind Kind, status int, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Status: status, Err: err}
}

// KindOf extracts the failure kind from err. Unknown errors count as no data.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	for k, s := range sentinels {
		if errors.Is(err, s) {
			return k
		}
	}
	return KindNoData
}

// KindForStatus maps an upstream HTTP status to a failure kind.
func KindForStatus(code int) Kind {
	switch code {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthenticated
	default:
		return KindNoData
	}
}
