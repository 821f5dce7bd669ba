package notify

import (
	"context"

	"design-drop/internal/logging"
)

// LogMailer records messages in the application log instead of sending
// them. It is the default when no provider is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	logging.Info("email (provider disabled)", map[string]any{
		"to":          msg.To,
		"subject":     msg.Subject,
		"attachments": names,
		"html_bytes":  len(msg.HTML),
	})
	return nil
}
