package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendMailer delivers through the Resend transactional email API.
type ResendMailer struct {
	client *resend.Client
}

// NewResendMailer creates a mailer authenticated with apiKey.
func NewResendMailer(apiKey string) *ResendMailer {
	return NewResendMailerWithClient(resend.NewClient(apiKey))
}

// NewResendMailerWithClient wraps an already configured client.
func NewResendMailerWithClient(client *resend.Client) *ResendMailer {
	return &ResendMailer{client: client}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
		})
	}

	if _, err := m.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
