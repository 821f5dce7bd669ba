package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// SMTPConfig holds the relay settings for SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends through an SMTP relay using PLAIN auth.
type SMTPMailer struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
	now      func() time.Time
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail, now: time.Now}
}

// Send builds the MIME body and hands it to the relay. net/smtp has no
// context support, so ctx is only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m.cfg.Host == "" || m.cfg.User == "" || m.cfg.Password == "" {
		return errors.New("smtp not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := buildMIME(msg, m.now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.sendMail(addr, auth, msg.From, msg.To, raw); err != nil {
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	return nil
}
