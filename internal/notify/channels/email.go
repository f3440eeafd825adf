package channels

import (
	"context"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	Username string
	Password string
	From     string
	To       []string
}

// EmailChannel delivers notifications over SMTP.
type EmailChannel struct {
	cfg    EmailConfig
	dialer *gomail.Dialer
}

func NewEmailChannel(cfg EmailConfig) *EmailChannel {
	return &EmailChannel{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
	}
}

func (e *EmailChannel) Name() string {
	return "email"
}

func (e *EmailChannel) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", e.cfg.From)
	m.SetHeader("To", e.cfg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	if err := e.dialer.DialAndSend(m); err != nil {
		return errors.Wrap(err, "send email")
	}
	return nil
}

func (e *EmailChannel) Close() error {
	return nil
}
