package sgmail

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithBackend sets the email provider type and a copy of its settings.
func WithBackend(backendType BackendType, settings ProviderSettings) Option {
	return func(c *Config) {
		c.Backend.Type = backendType
		c.Backend.Settings = make(ProviderSettings, len(settings))
		for k, v := range settings {
			c.Backend.Settings[k] = v
		}
	}
}

// WithSendGrid creates a SendGrid backend configuration.
func WithSendGrid(apiKey string) Option {
	return WithBackend(BackendSendGrid, ProviderSettings{
		"api_key": apiKey,
	})
}

// WithSendGridHost points the SendGrid backend at a different API host.
func WithSendGridHost(host string) Option {
	return func(c *Config) {
		if c.Backend.Settings == nil {
			c.Backend.Settings = ProviderSettings{}
		}
		c.Backend.Settings.Set("host", host)
	}
}

// WithAWSSES creates an AWS SES backend configuration.
func WithAWSSES(region string) Option {
	return WithBackend(BackendAWSSES, ProviderSettings{
		"region": region,
	})
}

// WithAWSSESCredentials creates an AWS SES backend configuration with explicit credentials.
func WithAWSSESCredentials(region, accessKey, secretKey string) Option {
	return WithBackend(BackendAWSSES, ProviderSettings{
		"region":     region,
		"access_key": accessKey,
		"secret_key": secretKey,
	})
}

// WithMailgun creates a Mailgun backend configuration.
func WithMailgun(apiKey, domain string) Option {
	return WithBackend(BackendMailgun, ProviderSettings{
		"api_key": apiKey,
		"domain":  domain,
	})
}

// WithMailgunEU creates a Mailgun backend configuration for EU region.
func WithMailgunEU(apiKey, domain string) Option {
	return WithBackend(BackendMailgun, ProviderSettings{
		"api_key":  apiKey,
		"domain":   domain,
		"base_url": "https://api.eu.mailgun.net",
	})
}

// WithTimeout sets the deadline applied to each Send call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Backend.Timeout = timeout
	}
}

// WithDefaultFromEmail sets the sender used for messages without one.
func WithDefaultFromEmail(address string) Option {
	return func(c *Config) {
		c.DefaultFromEmail = address
	}
}

// WithFailSilently controls whether provider errors are swallowed by Send.
func WithFailSilently(enabled bool) Option {
	return func(c *Config) {
		c.FailSilently = enabled
	}
}

// WithTracing enables tracing under the given service name.
func WithTracing(serviceName string) Option {
	return func(c *Config) {
		c.Tracing.Enabled = true
		c.Tracing.ServiceName = serviceName
	}
}

// WithoutTracing disables distributed tracing.
func WithoutTracing() Option {
	return func(c *Config) {
		c.Tracing.Enabled = false
	}
}

// WithLogging configures logging.
func WithLogging(level, format, output string) Option {
	return func(c *Config) {
		c.Logging.Level = level
		c.Logging.Format = format
		c.Logging.Output = output
	}
}

// WithLogger uses an existing logger instead of building one from LoggingConfig.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logging.Logger = logger
	}
}
