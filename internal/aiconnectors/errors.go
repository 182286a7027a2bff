package aiconnectors

import (
	"errors"
	"fmt"
)

// ErrorKind tags the way a completion failed.
type ErrorKind string

const (
	KindMissingCredentials ErrorKind = "missing_credentials"
	KindEmptyResponse      ErrorKind = "empty_response"
	KindUpstream           ErrorKind = "upstream_error"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrEmptyResponse      = errors.New("empty response")
)

// ProviderError is returned by Connector.Complete. Cause is kept for logging
// and errors.Is/As; Error() stays a short provider-tagged message.
type ProviderError struct {
	Provider  Provider
	Kind      ErrorKind
	Cause     error
	Retryable bool
}

func (e *ProviderError) Error() string {
	switch e.Kind {
	case KindMissingCredentials:
		return fmt.Sprintf("%s: API key is not configured", e.Provider)
	case KindEmptyResponse:
		return fmt.Sprintf("%s: no content in response", e.Provider)
	default:
		if e.Cause != nil {
			return fmt.Sprintf("%s API error: %v", e.Provider, e.Cause)
		}
		return fmt.Sprintf("%s API error", e.Provider)
	}
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Is matches the kind sentinels so callers need not type-assert.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrMissingCredentials:
		return e.Kind == KindMissingCredentials
	case ErrEmptyResponse:
		return e.Kind == KindEmptyResponse
	}
	return false
}
