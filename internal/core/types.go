package core

import (
	"context"
	"errors"
	"fmt"
)

// DefaultFromEmail is the sender used when a Message leaves From unset.
var DefaultFromEmail = "webmaster@localhost"

// Provider defines the interface for email service backends.
// Implementations translate Messages into their provider's wire format and submit them.
type Provider interface {
	// Send submits a batch of messages and returns how many were submitted.
	// An empty batch returns 0 without any network activity.
	Send(ctx context.Context, messages []*Message) (int, error)

	// ValidateConfig validates the provider configuration.
	// Returns an error if the configuration is invalid or incomplete.
	ValidateConfig() error

	// Name returns the provider's name for identification and logging.
	Name() string
}

// ProviderSettings represents configuration settings for email providers.
type ProviderSettings map[string]string

// Get retrieves a configuration value by key.
func (ps ProviderSettings) Get(key string) string {
	return ps[key]
}

// Set sets a configuration value.
func (ps ProviderSettings) Set(key, value string) {
	ps[key] = value
}

// Alternative is an additional rendering of the message body.
type Alternative struct {
	Content  string `json:"content" yaml:"content"`
	MIMEType string `json:"mime_type" yaml:"mime_type"`
}

// Message represents one outbound email before provider-specific formatting.
// Providers only read from it.
type Message struct {
	From          string            `json:"from" yaml:"from"`
	To            []string          `json:"to" yaml:"to"`
	CC            []string          `json:"cc" yaml:"cc"`
	BCC           []string          `json:"bcc" yaml:"bcc"`
	ReplyTo       []string          `json:"reply_to" yaml:"reply_to"`
	Subject       string            `json:"subject" yaml:"subject"`
	Body          string            `json:"body" yaml:"body"`
	Alternatives  []Alternative     `json:"alternatives" yaml:"alternatives"`
	Categories    []string          `json:"categories" yaml:"categories"`
	TemplateID    string            `json:"template_id" yaml:"template_id"`
	Substitutions map[string]string `json:"substitutions" yaml:"substitutions"`
	Sections      map[string]string `json:"sections" yaml:"sections"`
	ExtraHeaders  map[string]string `json:"extra_headers" yaml:"extra_headers"`
}

// FromEmail returns the sender address, falling back to DefaultFromEmail.
func (m *Message) FromEmail() string {
	if m.From == "" {
		return DefaultFromEmail
	}
	return m.From
}

// AttachAlternative appends an alternative body rendering.
func (m *Message) AttachAlternative(content, mimeType string) {
	m.Alternatives = append(m.Alternatives, Alternative{Content: content, MIMEType: mimeType})
}

// HTMLBody returns the content of the first text/html alternative, if any.
func (m *Message) HTMLBody() string {
	for _, alt := range m.Alternatives {
		if alt.MIMEType == "text/html" {
			return alt.Content
		}
	}
	return ""
}

// TotalRecipients returns the total number of recipients (To + CC + BCC).
func (m *Message) TotalRecipients() int {
	return len(m.To) + len(m.CC) + len(m.BCC)
}

// ErrImproperlyConfigured is matched by every ConfigError.
var ErrImproperlyConfigured = errors.New("improperly configured")

// ConfigError reports a missing or invalid setting detected at construction time.
type ConfigError struct {
	// Setting is the name of the offending setting.
	Setting string

	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("improperly configured: %s: %s", e.Setting, e.Message)
}

// Is reports ErrImproperlyConfigured and any other *ConfigError as matches.
func (e *ConfigError) Is(target error) bool {
	if target == ErrImproperlyConfigured {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok
}

// NewConfigError creates a new configuration error.
func NewConfigError(setting, message string) *ConfigError {
	return &ConfigError{
		Setting: setting,
		Message: message,
	}
}

// ProviderError represents an error from an email provider.
type ProviderError struct {
	// Provider is the name of the provider that generated the error.
	Provider string

	// Code is a short machine-readable error code.
	Code string

	// Message is the error message from the provider.
	Message string

	// StatusCode is the HTTP status code (for HTTP-based providers).
	StatusCode int

	// Cause is the underlying transport error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s error [%s] (status: %d): %s",
			e.Provider, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s error [%s]: %s", e.Provider, e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for errors.Is.
func (e *ProviderError) Is(target error) bool {
	pe, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return e.Provider == pe.Provider && e.Code == pe.Code
}

// NewProviderError creates a new provider error.
func NewProviderError(provider, code, message string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Code:     code,
		Message:  message,
	}
}

// WrapProviderError creates a provider error around a transport failure.
func WrapProviderError(provider, code string, cause error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Code:     code,
		Message:  cause.Error(),
		Cause:    cause,
	}
}
