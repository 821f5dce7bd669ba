package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"mime"
	"strings"

	"design-drop/internal/archive"
	"design-drop/internal/config"
	"design-drop/internal/model"
)

// Message roles, used to tell which of the two sends failed.
const (
	RoleOperator     = "operator"
	RoleConfirmation = "confirmation"
)

const confirmationSubject = "✅ Your Design Upload Was Received"

// SendError reports which message of a submission could not be delivered.
type SendError struct {
	Role string
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %s email: %v", e.Role, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

var operatorTmpl = template.Must(template.New("operator").Parse(`
<div style="font-family: Arial; color: #333; max-width:600px;margin:auto;">
  <h2 style="color:#2E86C1;">📐 New Design Upload</h2>
  <p><strong>Name:</strong> {{.Name}}</p>
  <p><strong>Email:</strong> <a href="mailto:{{.Email}}">{{.Email}}</a></p>
  <p><strong>IP:</strong> {{.IP}}</p>
  <p><strong>Time:</strong> {{.Timestamp}}</p>
  <p><strong>Files:</strong> {{.FileCount}}</p>
  {{- if .Preview}}
  <div style="margin-top:20px;"><strong>Preview:</strong><br><img src="{{.Preview}}" style="max-width:100%;border:1px solid #ddd;border-radius:4px;padding:4px;"></div>
  {{- end}}
  <hr style="margin:30px 0;border:none;border-top:1px solid #ccc;">
  <p style="font-size:14px;color:#777;">Uploaded via {{.Brand}} form.</p>
</div>
`))

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`
<div style="font-family: Arial; color: #333; max-width:600px;margin:auto;">
  <h2 style="color:#27AE60;">Thanks for Your Submission</h2>
  <p>Hi {{.Name}},</p>
  <p>We received your design and will review it soon. If needed, we’ll reach out at {{.Email}}.</p>
  <br><p>Warm regards,<br>{{.Brand}} Team</p>
  <hr style="margin:30px 0;border:none;border-top:1px solid #ccc;">
  <p style="font-size:14px;color:#777;">Confirmation of receipt of your files.</p>
</div>
`))

type operatorView struct {
	model.Submission
	Preview template.URL
	Brand   string
}

type confirmationView struct {
	Name, Email, Brand string
}

// Notifier composes and sends the two emails for an accepted submission.
type Notifier struct {
	mailer     Mailer
	from       string
	operatorTo string
	brand      string
}

func New(mailer Mailer, cfg config.NotifyConfig) *Notifier {
	return &Notifier{
		mailer:     mailer,
		from:       cfg.From,
		operatorTo: cfg.OperatorTo,
		brand:      cfg.Brand,
	}
}

// Notify sends the operator message and then the confirmation. The
// confirmation is not attempted when the operator send fails. preview may
// be nil.
func (n *Notifier) Notify(ctx context.Context, sub model.Submission, zip []byte, preview *model.UploadedFile) error {
	op, err := n.OperatorMessage(sub, zip, preview)
	if err != nil {
		return &SendError{Role: RoleOperator, Err: err}
	}
	if err := n.mailer.Send(ctx, op); err != nil {
		return &SendError{Role: RoleOperator, Err: err}
	}

	conf, err := n.ConfirmationMessage(sub)
	if err != nil {
		return &SendError{Role: RoleConfirmation, Err: err}
	}
	if err := n.mailer.Send(ctx, conf); err != nil {
		return &SendError{Role: RoleConfirmation, Err: err}
	}
	return nil
}

// OperatorMessage builds the operator notification carrying the archive.
func (n *Notifier) OperatorMessage(sub model.Submission, zip []byte, preview *model.UploadedFile) (Message, error) {
	view := operatorView{Submission: sub, Brand: n.brand}
	if preview != nil {
		view.Preview = previewURL(*preview)
	}

	var body bytes.Buffer
	if err := operatorTmpl.Execute(&body, view); err != nil {
		return Message{}, fmt.Errorf("render operator email: %w", err)
	}

	return Message{
		From:    n.from,
		To:      []string{n.operatorTo},
		Subject: "New Design Upload from " + sub.Name,
		HTML:    body.String(),
		Attachments: []Attachment{{
			Filename:    archive.Name(sub.Timestamp),
			ContentType: archive.ContentType,
			Content:     zip,
		}},
	}, nil
}

// ConfirmationMessage builds the receipt sent to the submitter.
func (n *Notifier) ConfirmationMessage(sub model.Submission) (Message, error) {
	var body bytes.Buffer
	err := confirmationTmpl.Execute(&body, confirmationView{Name: sub.Name, Email: sub.Email, Brand: n.brand})
	if err != nil {
		return Message{}, fmt.Errorf("render confirmation email: %w", err)
	}

	return Message{
		From:    n.from,
		To:      []string{sub.Email},
		Subject: confirmationSubject,
		HTML:    body.String(),
	}, nil
}

// previewURL returns an inline data: URL for an image file, or "" when the
// content type is not a parseable image type.
func previewURL(f model.UploadedFile) template.URL {
	mediaType, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return ""
	}
	return template.URL("data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(f.Content))
}
