package sendgrid

import (
	"context"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"

	"github.com/lattiq/sgmail/internal/core"
)

const (
	// DefaultHost is the SendGrid API host.
	DefaultHost = "https://api.sendgrid.com"

	// DefaultEndpoint is the v3 mail-send path.
	DefaultEndpoint = "/v3/mail/send"
)

// Provider implements the core.Provider interface for SendGrid.
type Provider struct {
	apiKey   string
	host     string
	endpoint string
	config   core.ProviderSettings
}

// NewProvider creates a new SendGrid provider.
// It fails with a *core.ConfigError when no API key is configured.
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	apiKey := settings.Get("api_key")
	if apiKey == "" {
		return nil, core.NewConfigError("SENDGRID_API_KEY", "SendGrid API key is required")
	}

	host := settings.Get("host")
	if host == "" {
		host = DefaultHost
	}

	endpoint := settings.Get("endpoint")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	provider := &Provider{
		apiKey:   apiKey,
		host:     host,
		endpoint: endpoint,
		config:   settings,
	}

	return provider, nil
}

// Send builds a wire record for every message and submits the whole batch in
// one request. Transport failures are returned as *core.ProviderError.
func (p *Provider) Send(ctx context.Context, messages []*core.Message) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	records := make([]*WireRecord, len(messages))
	for i, msg := range messages {
		records[i] = Build(msg)
	}

	body, err := encodeBatch(records)
	if err != nil {
		return 0, core.WrapProviderError(p.Name(), "encode_error", err)
	}

	request := sendgrid.GetRequest(p.apiKey, p.endpoint, p.host)
	request.Method = rest.Post
	request.Body = body
	request.Headers["Content-Type"] = "application/json"
	if userAgent := p.config.Get("user_agent"); userAgent != "" {
		request.Headers["User-Agent"] = userAgent
	}

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return 0, core.WrapProviderError(p.Name(), "send_error", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return 0, &core.ProviderError{
			Provider:   p.Name(),
			Code:       "api_error",
			Message:    "SendGrid API error: " + response.Body,
			StatusCode: response.StatusCode,
		}
	}

	return len(messages), nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("api_key") == "" {
		return core.NewConfigError("SENDGRID_API_KEY", "SendGrid API key is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "sendgrid"
}
