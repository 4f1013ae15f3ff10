package domain

import (
	"errors"
	"fmt"
)

// Lookup failures are recoverable: the caller may try another carrier or tier.
// Retrying with identical input reproduces the same result.
var (
	ErrZoneNotFound   = errors.New("zone not found")
	ErrPolicyNotFound = errors.New("policy not found")
	ErrRateNotFound   = errors.New("rate not found")
	ErrInvalidInput   = errors.New("invalid input")

	// ErrDataStoreUnavailable marks transient store failures, safe to retry with backoff.
	ErrDataStoreUnavailable = errors.New("data store unavailable")

	// ErrNotConfigured marks a feature this deployment was started without.
	ErrNotConfigured = errors.New("not configured")
)

// IsNoMatch reports whether err means no reference data matched the request.
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrZoneNotFound) ||
		errors.Is(err, ErrPolicyNotFound) ||
		errors.Is(err, ErrRateNotFound)
}

// ErrCarrierNotFound is a policy lookup failure: an unknown carrier has no policies.
var ErrCarrierNotFound = fmt.Errorf("carrier not found: %w", ErrPolicyNotFound)
