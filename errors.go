package sgmail

import (
	"errors"

	"github.com/lattiq/sgmail/internal/core"
)

// Predefined sentinel errors for common cases.
var (
	// ErrImproperlyConfigured matches every configuration error raised while
	// constructing a client, such as a missing API key.
	ErrImproperlyConfigured = core.ErrImproperlyConfigured

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("client closed")
)

// IsConfigError reports whether err was caused by missing or invalid configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrImproperlyConfigured)
}

// IsProviderError reports whether err came from the email provider or its transport.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
