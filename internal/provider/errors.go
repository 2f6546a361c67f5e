package provider

import (
	"errors"
	"fmt"
)

// ErrUnsupportedProvider indicates no adapter is registered for the name.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// ErrMissingAPIKey indicates an adapter was constructed without credentials.
var ErrMissingAPIKey = errors.New("missing provider api key")

// APIError is a non-2xx or in-band error reported by a provider API.
type APIError struct {
	Provider   string
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s error: %s (%s)", e.Provider, e.Message, e.Type)
	}
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

// Retryable reports whether a retry is likely to help. Rate limits and
// server-side failures are transient; auth and validation failures are not.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
