package rag

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ProviderError is the failure surface shared by embedding and LLM backends.
// It carries enough classification for the retry policy: transient failures
// (timeouts, rate limits, 5xx) are retried with backoff, everything else
// (auth, bad input) fails immediately.
type ProviderError struct {
	// Backend names the provider ("openai", "cohere", "ollama", ...).
	Backend string
	// StatusCode is the HTTP status, or 0 for transport-level failures.
	StatusCode int
	// Message is the provider's error message, if any.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Backend, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: HTTP %d", e.Backend, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", e.Backend, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error { return e.Err }

// Transient reports whether retrying the call may succeed: request timeouts,
// rate limiting, and server-side errors are transient; auth and validation
// failures are not.
func (e *ProviderError) Transient() bool {
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 {
		return true
	}
	if e.StatusCode != 0 {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(e.Err, &netErr) {
		return netErr.Timeout()
	}
	// Unclassified transport failures (connection refused, reset) are worth
	// one more try.
	return e.Err != nil
}

// IsTransient reports whether err is a transient provider failure.
func IsTransient(err error) bool {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Transient()
	}
	return false
}
