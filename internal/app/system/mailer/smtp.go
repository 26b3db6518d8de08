// internal/app/system/mailer/smtp.go
package mailer

import (
	"context"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds relay settings. Port 587 negotiates STARTTLS.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
}

// SMTPTransport sends through an SMTP relay, one connection per message.
type SMTPTransport struct {
	dialer *gomail.Dialer
}

// NewSMTPTransport returns a transport for cfg.
func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	return &SMTPTransport{dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)}
}

// Send dials the relay and delivers msg. gomail has no context support, so
// ctx is only checked before dialing.
func (t *SMTPTransport) Send(ctx context.Context, from string, msg Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.dialer.DialAndSend(buildMessage(from, msg))
}

func buildMessage(from string, msg Email) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}
	return m
}
