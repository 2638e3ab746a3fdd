// Package sgmail converts generic email messages into SendGrid v3 mail-send
// payloads and submits them.
//
// A Message carries sender, recipients, subject, a plain-text body, optional
// alternative renderings and optional SendGrid attributes (categories,
// template id, substitutions, sections, extra headers). BuildPayload maps one
// Message to its request body; Client.Send builds a payload for every message
// and submits the whole batch in a single request.
//
// # Basic Usage
//
//	client, err := sgmail.New(sgmail.LoadConfig())
//	if err != nil {
//		log.Fatal(err) // SENDGRID_API_KEY is not set
//	}
//	defer client.Close()
//
//	msg := &sgmail.Message{
//		From:    "noreply@example.com",
//		To:      []string{"user@example.com"},
//		Subject: "Welcome",
//		Body:    "Welcome!",
//	}
//	msg.AttachAlternative("<h1>Welcome!</h1>", "text/html")
//
//	sent, err := client.Send(context.Background(), msg)
//
// # Errors
//
// Construction fails with a *ConfigError (matching ErrImproperlyConfigured)
// when the provider credential is missing. Send returns *ProviderError for
// transport failures and non-2xx responses. Nothing is retried.
//
// # Other Providers
//
// The same Message can be sent through AWS SES or Mailgun by selecting a
// different BackendType. SendGrid-only attributes are mapped where the
// provider has an equivalent and ignored otherwise.
package sgmail
