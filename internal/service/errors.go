package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the handshake and credential preconditions. Callers
// classify with errors.Is.
var (
	// ErrVerifyTokenNotConfigured means no verify token is set; the
	// handshake must never succeed silently in that state.
	ErrVerifyTokenNotConfigured = errors.New("verification token not configured")

	// ErrVerificationFailed means the handshake mode or token did not match.
	ErrVerificationFailed = errors.New("forbidden: verification failed")

	// ErrMissingCredentials means a send was attempted without both the
	// access token and the phone number ID configured.
	ErrMissingCredentials = errors.New("missing credentials: access token or phone number ID not configured")
)

// TransportError is a network-level failure reaching the provider (DNS,
// timeout, connection reset). The caller owns any retry policy; none is
// applied here.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProviderError is a non-success response from the provider, carrying the
// provider's own error message when it sent one.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}
