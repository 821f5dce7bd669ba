// Package notify sends the operator and confirmation emails for a
// submission through a pluggable mail provider.
package notify

import (
	"context"
	"fmt"

	"design-drop/internal/config"
)

// Attachment is one file attached to a Message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a provider-independent HTML email.
type Message struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers a single message. Implementations do not retry.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer builds the mailer selected by cfg.Provider.
func NewMailer(ctx context.Context, cfg config.MailConfig) (Mailer, error) {
	switch cfg.Provider {
	case config.MailResend:
		return NewResendMailer(cfg.ResendAPIKey), nil
	case config.MailSES:
		m, err := NewSESMailer(ctx, cfg.SESRegion)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.MailSMTP:
		return NewSMTPMailer(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}), nil
	case config.MailLog, "":
		return LogMailer{}, nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
