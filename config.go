package sgmail

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete client configuration.
type Config struct {
	// Backend selects and configures the email provider.
	Backend BackendConfig `yaml:"backend"`

	// DefaultFromEmail is used for messages that leave From unset.
	DefaultFromEmail string `yaml:"default_from_email"`

	// FailSilently makes Send swallow provider errors and report zero messages sent.
	// Configuration errors are never silenced.
	FailSilently bool `yaml:"fail_silently"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig contains provider-specific settings.
type BackendConfig struct {
	// Type specifies the email provider to use.
	Type BackendType `yaml:"type"`

	// Settings holds provider settings such as api_key, host or region.
	Settings ProviderSettings `yaml:"settings"`

	// Timeout bounds a single Send call. Zero means no deadline beyond the caller's context.
	Timeout time.Duration `yaml:"timeout"`
}

// BackendType represents the type of email provider.
type BackendType string

const (
	// BackendSendGrid represents the SendGrid v3 mail-send API.
	BackendSendGrid BackendType = "sendgrid"

	// BackendAWSSES represents Amazon Simple Email Service.
	BackendAWSSES BackendType = "aws_ses"

	// BackendMailgun represents the Mailgun email service.
	BackendMailgun BackendType = "mailgun"
)

// String returns the string representation of the backend type.
func (bt BackendType) String() string {
	return string(bt)
}

// Valid checks if the backend type is supported.
func (bt BackendType) Valid() bool {
	switch bt {
	case BackendSendGrid, BackendAWSSES, BackendMailgun:
		return true
	default:
		return false
	}
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled indicates whether spans are recorded through the global tracer provider.
	Enabled bool `yaml:"enabled"`

	// ServiceName is the instrumentation name reported with spans.
	ServiceName string `yaml:"service_name"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string `yaml:"level"`

	// Format is the log format (json, text).
	Format string `yaml:"format"`

	// Output is where to write logs (stdout, stderr, discard).
	Output string `yaml:"output"`

	// Logger overrides Level, Format and Output when set.
	Logger *slog.Logger `yaml:"-"`
}

// envSetting maps an environment variable onto a provider setting key.
type envSetting struct {
	env string
	key string
}

var backendEnv = map[BackendType][]envSetting{
	BackendSendGrid: {
		{env: "SENDGRID_API_KEY", key: "api_key"},
		{env: "SENDGRID_HOST", key: "host"},
	},
	BackendAWSSES: {
		{env: "SES_REGION", key: "region"},
		{env: "SES_ACCESS_KEY_ID", key: "access_key"},
		{env: "SES_SECRET_ACCESS_KEY", key: "secret_key"},
		{env: "SES_CONFIGURATION_SET", key: "configuration_set"},
	},
	BackendMailgun: {
		{env: "MAILGUN_API_KEY", key: "api_key"},
		{env: "MAILGUN_DOMAIN", key: "domain"},
		{env: "MAILGUN_BASE_URL", key: "base_url"},
	},
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			Type:     BackendSendGrid,
			Settings: ProviderSettings{},
			Timeout:  30 * time.Second,
		},
		DefaultFromEmail: "webmaster@localhost",
		Tracing: TracingConfig{
			Enabled:     true,
			ServiceName: "sgmail",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// LoadConfig builds a configuration from defaults overridden by environment variables.
func LoadConfig() Config {
	cfg := DefaultConfig()
	cfg.applyEnvVars()
	return cfg
}

// LoadConfigFile loads configuration from a YAML file on top of the defaults,
// then overrides it with environment variables.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("MAILER_BACKEND"); v != "" {
		c.Backend.Type = BackendType(v)
	}
	if v := os.Getenv("MAILER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Backend.Timeout = d
		}
	}
	if v := os.Getenv("DEFAULT_FROM_EMAIL"); v != "" {
		c.DefaultFromEmail = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}

	if c.Backend.Settings == nil {
		c.Backend.Settings = ProviderSettings{}
	}
	for _, s := range backendEnv[c.Backend.Type] {
		if v := os.Getenv(s.env); v != "" {
			c.Backend.Settings.Set(s.key, v)
		}
	}
}

// Validate checks the configuration shape. Provider credentials are checked
// when the provider is constructed.
func (c *Config) Validate() error {
	if !c.Backend.Type.Valid() {
		return NewConfigError("backend.type", "invalid or unsupported backend type: "+string(c.Backend.Type))
	}

	if c.Backend.Timeout < 0 {
		return NewConfigError("backend.timeout", "timeout must not be negative")
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return NewConfigError("logging.format", "unsupported log format: "+c.Logging.Format)
	}

	return nil
}
