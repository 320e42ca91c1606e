package notify

import (
	"context"
	"crypto/tls"
	"fmt"

	"todoapp/internal/config"

	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends notifications over SMTP.
type Mailer struct {
	from   string
	dialer dialer
}

// NewMailer builds a Mailer from the MAIL_* settings.
func NewMailer(cfg config.MailConfig) *Mailer {
	d := gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password)
	if cfg.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: cfg.Server, MinVersion: tls.VersionTLS12}
	}
	return &Mailer{from: cfg.DefaultSender, dialer: d}
}

// NewSender returns a Mailer when mail is configured and a LogSender otherwise.
func NewSender(cfg config.MailConfig) Sender {
	if !cfg.Enabled() {
		return LogSender{}
	}
	return NewMailer(cfg)
}

// Send renders msg and delivers it as a multipart text/HTML email.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	email, err := Render(msg)
	if err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", email.Subject)
	gm.SetBody("text/plain", email.Text)
	gm.AddAlternative("text/html", email.HTML)
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("send %s mail to %s: %w", msg.Kind, msg.To, err)
	}
	return nil
}
