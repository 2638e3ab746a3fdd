package sendgrid

import (
	"encoding/json"
	netmail "net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/lattiq/sgmail/internal/core"
)

// WireRecord is the v3 mail-send request body for a single message.
//
// Subject and content values are always serialized, even when empty. Optional
// keys are left at their zero value unless the source attribute is non-empty,
// so omitempty drops them from the JSON entirely.
type WireRecord struct {
	From             *mail.Email        `json:"from"`
	Subject          string             `json:"subject"`
	Personalizations []*Personalization `json:"personalizations"`
	Content          []*Content         `json:"content"`
	ReplyTo          *mail.Email        `json:"reply_to,omitempty"`
	Categories       []string           `json:"categories,omitempty"`
	TemplateID       string             `json:"template_id,omitempty"`
	Substitutions    map[string]string  `json:"substitutions,omitempty"`
	Sections         map[string]string  `json:"sections,omitempty"`
	Headers          map[string]string  `json:"headers,omitempty"`
}

// Personalization groups the recipients of a WireRecord.
type Personalization struct {
	To      []*mail.Email `json:"to,omitempty"`
	CC      []*mail.Email `json:"cc,omitempty"`
	BCC     []*mail.Email `json:"bcc,omitempty"`
	Subject string        `json:"subject"`
}

// Content is one rendering of the message body.
type Content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// passthrough copies one optional Message attribute to its wire key.
type passthrough struct {
	key     string
	present func(msg *core.Message) bool
	apply   func(msg *core.Message, record *WireRecord)
}

// passthroughs is applied in order; an attribute is copied only when non-empty.
var passthroughs = []passthrough{
	{
		key:     "categories",
		present: func(msg *core.Message) bool { return len(msg.Categories) > 0 },
		apply:   func(msg *core.Message, record *WireRecord) { record.Categories = msg.Categories },
	},
	{
		key:     "template_id",
		present: func(msg *core.Message) bool { return msg.TemplateID != "" },
		apply:   func(msg *core.Message, record *WireRecord) { record.TemplateID = msg.TemplateID },
	},
	{
		key:     "substitutions",
		present: func(msg *core.Message) bool { return len(msg.Substitutions) > 0 },
		apply:   func(msg *core.Message, record *WireRecord) { record.Substitutions = msg.Substitutions },
	},
	{
		key:     "sections",
		present: func(msg *core.Message) bool { return len(msg.Sections) > 0 },
		apply:   func(msg *core.Message, record *WireRecord) { record.Sections = msg.Sections },
	},
	{
		key:     "headers",
		present: func(msg *core.Message) bool { return len(msg.ExtraHeaders) > 0 },
		apply:   func(msg *core.Message, record *WireRecord) { record.Headers = msg.ExtraHeaders },
	},
}

// PassthroughKeys returns the optional top-level keys Build may emit, in the
// order they are evaluated.
func PassthroughKeys() []string {
	keys := make([]string, len(passthroughs))
	for i, pt := range passthroughs {
		keys[i] = pt.key
	}
	return keys
}

// Build maps a message to its wire record. The message is not modified.
func Build(msg *core.Message) *WireRecord {
	personalization := &Personalization{
		To:      toEmails(msg.To),
		CC:      toEmails(msg.CC),
		BCC:     toEmails(msg.BCC),
		Subject: msg.Subject,
	}

	record := &WireRecord{
		From:             toEmail(msg.FromEmail()),
		Subject:          msg.Subject,
		Personalizations: []*Personalization{personalization},
		Content:          make([]*Content, 0, 1+len(msg.Alternatives)),
	}

	record.Content = append(record.Content, &Content{Type: "text/plain", Value: msg.Body})
	for _, alt := range msg.Alternatives {
		record.Content = append(record.Content, &Content{Type: alt.MIMEType, Value: alt.Content})
	}

	if len(msg.ReplyTo) > 0 {
		record.ReplyTo = toEmail(msg.ReplyTo[0])
	}

	for _, pt := range passthroughs {
		if pt.present(msg) {
			pt.apply(msg, record)
		}
	}

	return record
}

// encodeBatch serializes records for a single request. A batch of one is sent
// as a plain mail object.
func encodeBatch(records []*WireRecord) ([]byte, error) {
	if len(records) == 1 {
		return json.Marshal(records[0])
	}
	return json.Marshal(records)
}

// toEmail splits "Name <addr>" forms into name and address. Any other input,
// including bare, quoted or commented addresses, is copied unchanged.
func toEmail(address string) *mail.Email {
	open := strings.LastIndexByte(address, '<')
	end := strings.LastIndexByte(address, '>')
	if open <= 0 || end < open || strings.TrimSpace(address[:open]) == "" {
		return mail.NewEmail("", address)
	}

	parsed, err := netmail.ParseAddress(address)
	if err != nil || parsed.Name == "" {
		return mail.NewEmail("", address)
	}
	return mail.NewEmail(parsed.Name, strings.TrimSpace(address[open+1:end]))
}

func toEmails(addresses []string) []*mail.Email {
	if len(addresses) == 0 {
		return nil
	}
	result := make([]*mail.Email, len(addresses))
	for i, addr := range addresses {
		result[i] = toEmail(addr)
	}
	return result
}
