package sgmail

import (
	"context"

	"github.com/lattiq/sgmail/internal/core"
	"github.com/lattiq/sgmail/internal/providers/sendgrid"
)

// Type aliases to re-export internal types for the public API.
type (
	Provider         = core.Provider
	ProviderSettings = core.ProviderSettings
	Message          = core.Message
	Alternative      = core.Alternative
	ConfigError      = core.ConfigError
	ProviderError    = core.ProviderError

	// Payload is the SendGrid v3 mail-send body built for one Message.
	Payload = sendgrid.WireRecord

	// Personalization is the recipient grouping inside a Payload.
	Personalization = sendgrid.Personalization

	// Content is one body rendering inside a Payload.
	Content = sendgrid.Content
)

// Error constructor functions
var (
	NewConfigError   = core.NewConfigError
	NewProviderError = core.NewProviderError
)

// Mailer defines the message sending interface.
type Mailer interface {
	// Send submits messages in a single batch and returns how many were sent.
	// Sending nothing is a no-op.
	Send(ctx context.Context, messages ...*Message) (int, error)

	// Close closes the mailer. After calling Close, Send returns ErrClientClosed.
	Close() error
}

// BuildPayload returns the SendGrid request body for msg without sending it.
func BuildPayload(msg *Message) *Payload {
	return sendgrid.Build(msg)
}
