package mailgun

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/lattiq/sgmail/internal/core"
)

// Provider implements the core.Provider interface for Mailgun.
type Provider struct {
	client mailgun.Mailgun
	config core.ProviderSettings
}

// NewProvider creates a new Mailgun provider.
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	apiKey := settings.Get("api_key")
	if apiKey == "" {
		return nil, core.NewConfigError("MAILGUN_API_KEY", "Mailgun API key is required")
	}

	domain := settings.Get("domain")
	if domain == "" {
		return nil, core.NewConfigError("MAILGUN_DOMAIN", "Mailgun domain is required")
	}

	client := mailgun.NewMailgun(domain, apiKey)

	// Set base URL if provided (for EU customers)
	if baseURL := settings.Get("base_url"); baseURL != "" {
		client.SetAPIBase(baseURL)
	}

	provider := &Provider{
		client: client,
		config: settings,
	}

	return provider, nil
}

// Send sends each message with its own API call and stops at the first failure.
func (p *Provider) Send(ctx context.Context, messages []*core.Message) (int, error) {
	sent := 0
	for _, msg := range messages {
		message, err := p.buildMessage(msg)
		if err != nil {
			return sent, err
		}

		if _, _, err := p.client.Send(ctx, message); err != nil {
			return sent, core.WrapProviderError(p.Name(), "send_failed", err)
		}
		sent++
	}
	return sent, nil
}

// buildMessage rejects messages Mailgun would refuse as invalid before any
// request is made: no recipients, or no text, HTML or template to render.
func (p *Provider) buildMessage(msg *core.Message) (*mailgun.Message, error) {
	if msg.TotalRecipients() == 0 {
		return nil, core.NewProviderError(p.Name(), "no_recipients", "Mailgun requires at least one recipient")
	}
	if msg.Body == "" && msg.HTMLBody() == "" && msg.TemplateID == "" {
		return nil, core.NewProviderError(p.Name(), "empty_body", "Mailgun requires a text or HTML body unless a template is set")
	}

	// The first To address seeds the message; the rest are added below.
	var first []string
	if len(msg.To) > 0 {
		first = msg.To[:1]
	}
	message := p.client.NewMessage(msg.FromEmail(), msg.Subject, msg.Body, first...)

	for i := 1; i < len(msg.To); i++ {
		if err := message.AddRecipient(msg.To[i]); err != nil {
			return nil, core.NewProviderError(p.Name(), "recipient_add_failed",
				fmt.Sprintf("failed to add recipient %s: %v", msg.To[i], err))
		}
	}

	for _, cc := range msg.CC {
		message.AddCC(cc)
	}

	for _, bcc := range msg.BCC {
		message.AddBCC(bcc)
	}

	if len(msg.ReplyTo) > 0 {
		message.SetReplyTo(msg.ReplyTo[0])
	}

	if html := msg.HTMLBody(); html != "" {
		message.SetHtml(html)
	}

	if len(msg.Categories) > 0 {
		if err := message.AddTag(msg.Categories...); err != nil {
			return nil, core.NewProviderError(p.Name(), "tag_add_failed", err.Error())
		}
	}

	if msg.TemplateID != "" {
		message.SetTemplate(msg.TemplateID)
	}

	for key, value := range msg.ExtraHeaders {
		message.AddHeader(key, value)
	}

	return message, nil
}

// ValidateConfig validates the Mailgun provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("api_key") == "" {
		return core.NewConfigError("MAILGUN_API_KEY", "Mailgun API key is required")
	}
	if p.config.Get("domain") == "" {
		return core.NewConfigError("MAILGUN_DOMAIN", "Mailgun domain is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mailgun"
}
