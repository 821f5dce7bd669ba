package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the subset of the SES client used for sending.
type SESAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESMailer sends raw MIME messages through Amazon SES, which is the only
// SES call that supports attachments.
type SESMailer struct {
	client SESAPI
	now    func() time.Time
}

// NewSESMailer loads the default AWS configuration for region.
func NewSESMailer(ctx context.Context, region string) (*SESMailer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESMailerWithClient(ses.NewFromConfig(cfg)), nil
}

func NewSESMailerWithClient(client SESAPI) *SESMailer {
	return &SESMailer{client: client, now: time.Now}
}

func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	raw, err := buildMIME(msg, m.now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	_, err = m.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(msg.From),
		Destinations: msg.To,
		RawMessage:   &types.RawMessage{Data: raw},
	})
	if err != nil {
		return fmt.Errorf("ses: %w", err)
	}
	return nil
}
