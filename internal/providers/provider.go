package providers

import (
	"fmt"

	"github.com/lattiq/sgmail/internal/core"
	"github.com/lattiq/sgmail/internal/providers/mailgun"
	"github.com/lattiq/sgmail/internal/providers/sendgrid"
	"github.com/lattiq/sgmail/internal/providers/ses"
)

// Provider type names accepted by New.
const (
	SendGrid = "sendgrid"
	AWSSES   = "aws_ses"
	Mailgun  = "mailgun"
)

// New creates the provider registered under name.
func New(name string, settings core.ProviderSettings) (core.Provider, error) {
	switch name {
	case SendGrid:
		return sendgrid.NewProvider(settings)
	case AWSSES:
		return ses.NewProvider(settings)
	case Mailgun:
		return mailgun.NewProvider(settings)
	default:
		return nil, core.NewConfigError("MAILER_BACKEND", fmt.Sprintf("unsupported backend type: %q", name))
	}
}
