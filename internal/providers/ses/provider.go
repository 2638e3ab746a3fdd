package ses

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/lattiq/sgmail/internal/core"
)

// SendEmailAPI is the subset of the SES client used by the provider.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Provider implements the core.Provider interface for AWS SES.
type Provider struct {
	client SendEmailAPI
	config core.ProviderSettings
}

// NewProvider creates a new AWS SES provider.
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	region := settings.Get("region")
	if region == "" {
		return nil, core.NewConfigError("SES_REGION", "AWS region is required")
	}

	// Load AWS config
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, core.NewConfigError("SES_REGION", "failed to load AWS config: "+err.Error())
	}

	// Override with explicit credentials if provided
	if accessKey := settings.Get("access_key"); accessKey != "" {
		secretKey := settings.Get("secret_key")
		if secretKey == "" {
			return nil, core.NewConfigError("SES_SECRET_ACCESS_KEY", "secret key is required when access key is provided")
		}

		cfg.Credentials = aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     accessKey,
				SecretAccessKey: secretKey,
				SessionToken:    settings.Get("session_token"),
			}, nil
		})
	}

	return NewWithClient(settings, ses.NewFromConfig(cfg)), nil
}

// NewWithClient creates a provider around an existing SES client.
func NewWithClient(settings core.ProviderSettings, client SendEmailAPI) *Provider {
	return &Provider{
		client: client,
		config: settings,
	}
}

// Send sends each message with its own SendEmail call, since SES has no batch
// API for distinct messages. It stops at the first failure.
func (p *Provider) Send(ctx context.Context, messages []*core.Message) (int, error) {
	sent := 0
	for _, msg := range messages {
		if _, err := p.client.SendEmail(ctx, p.buildInput(msg)); err != nil {
			return sent, core.WrapProviderError(p.Name(), "send_error", err)
		}
		sent++
	}
	return sent, nil
}

func (p *Provider) buildInput(msg *core.Message) *ses.SendEmailInput {
	input := &ses.SendEmailInput{
		Source:      aws.String(msg.FromEmail()),
		Destination: &types.Destination{},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(msg.Subject),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(msg.Body),
				},
			},
		},
	}

	if len(msg.To) > 0 {
		input.Destination.ToAddresses = msg.To
	}
	if len(msg.CC) > 0 {
		input.Destination.CcAddresses = msg.CC
	}
	if len(msg.BCC) > 0 {
		input.Destination.BccAddresses = msg.BCC
	}
	if len(msg.ReplyTo) > 0 {
		input.ReplyToAddresses = msg.ReplyTo
	}

	if html := msg.HTMLBody(); html != "" {
		input.Message.Body.Html = &types.Content{
			Data: aws.String(html),
		}
	}

	// SES tag names must be unique, so categories are numbered.
	for i, category := range msg.Categories {
		input.Tags = append(input.Tags, types.MessageTag{
			Name:  aws.String(fmt.Sprintf("category_%d", i)),
			Value: aws.String(category),
		})
	}

	if configSet := p.config.Get("configuration_set"); configSet != "" {
		input.ConfigurationSetName = aws.String(configSet)
	}

	return input
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("region") == "" {
		return core.NewConfigError("SES_REGION", "AWS region is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "aws_ses"
}
