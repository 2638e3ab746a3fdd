package sgmail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/lattiq/sgmail/internal/providers"
)

// Client implements the Mailer interface on top of a single provider.
// It is safe for concurrent use, but each Send is an independent synchronous call.
type Client struct {
	config   Config
	provider Provider
	tracer   trace.Tracer
	logger   *slog.Logger
	mu       sync.RWMutex
	closed   bool
}

// New creates a new client with the given configuration.
// It fails with a *ConfigError when the provider credentials are missing,
// before any message can be sent.
func New(config Config, opts ...Option) (*Client, error) {
	// Apply functional options
	for _, opt := range opts {
		opt(&config)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Copy settings so the user agent default does not leak into the caller's map.
	settings := make(ProviderSettings, len(config.Backend.Settings)+1)
	for k, v := range config.Backend.Settings {
		settings[k] = v
	}
	if settings.Get("user_agent") == "" {
		settings.Set("user_agent", GetVersionInfo().UserAgent())
	}

	provider, err := providers.New(config.Backend.Type.String(), settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", config.Backend.Type, err)
	}

	client := &Client{
		config:   config,
		provider: provider,
		logger:   newLogger(config.Logging).With(slog.String("provider", provider.Name())),
	}

	if config.Tracing.Enabled {
		client.tracer = otel.Tracer(config.Tracing.ServiceName, trace.WithInstrumentationVersion(Version))
	} else {
		client.tracer = noop.NewTracerProvider().Tracer("")
	}

	return client, nil
}

var _ Mailer = (*Client)(nil)

// Send submits messages as one batch and returns the number sent.
// An empty call returns immediately without contacting the provider.
//
// With the SendGrid backend the batch is a single request: one message is
// posted as a mail object, two or more as a JSON array of mail objects. The
// public v3 mail-send endpoint documents only the single-object form, so a
// multi-message batch is meant for hosts that accept arrays; call Send once
// per message against api.sendgrid.com. SES and Mailgun send one request per
// message and stop at the first failure.
func (c *Client) Send(ctx context.Context, messages ...*Message) (int, error) {
	ctx, span := c.tracer.Start(ctx, "sgmail.Client.Send")
	defer span.End()

	// Check if client is closed
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		span.RecordError(ErrClientClosed)
		span.SetStatus(codes.Error, ErrClientClosed.Error())
		return 0, ErrClientClosed
	}
	c.mu.RUnlock()

	if len(messages) == 0 {
		span.SetStatus(codes.Ok, "no messages to send")
		return 0, nil
	}

	span.SetAttributes(
		attribute.Int("mailer.batch.size", len(messages)),
		attribute.String("mailer.provider", c.provider.Name()),
	)

	if c.config.Backend.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Backend.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	sent, err := c.provider.Send(ctx, c.withDefaultSender(messages))
	duration := time.Since(startTime)

	span.SetAttributes(
		attribute.Int("mailer.sent", sent),
		attribute.Int64("mailer.provider.duration_ms", duration.Milliseconds()),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")

		if c.config.FailSilently {
			c.logger.WarnContext(ctx, "send failed, ignoring",
				slog.Int("batch_size", len(messages)),
				slog.Any("error", err),
			)
			return 0, nil
		}

		c.logger.ErrorContext(ctx, "send failed",
			slog.Int("batch_size", len(messages)),
			slog.Int("sent", sent),
			slog.Any("error", err),
		)
		return sent, err
	}

	span.SetStatus(codes.Ok, "messages sent")
	c.logger.InfoContext(ctx, "messages sent",
		slog.Int("sent", sent),
		slog.Duration("duration", duration),
	)

	return sent, nil
}

// Close closes the client. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

// withDefaultSender returns messages with an unset From filled from the
// configured default. Messages are copied, never modified in place.
func (c *Client) withDefaultSender(messages []*Message) []*Message {
	if c.config.DefaultFromEmail == "" {
		return messages
	}

	resolved := make([]*Message, len(messages))
	for i, msg := range messages {
		if msg.From != "" {
			resolved[i] = msg
			continue
		}
		clone := *msg
		clone.From = c.config.DefaultFromEmail
		resolved[i] = &clone
	}
	return resolved
}
