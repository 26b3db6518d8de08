// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// Email is one outgoing message. HTMLBody is optional.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Transport delivers a fully addressed message. from is an RFC 5322 address,
// possibly with a display name.
type Transport interface {
	Send(ctx context.Context, from string, msg Email) error
}

// Mailer stamps the configured sender onto messages and hands them to a
// Transport.
type Mailer struct {
	transport Transport
	from      string
	log       *zap.Logger
}

// New returns a Mailer sending as fromName <fromAddr>.
func New(t Transport, fromAddr, fromName string, logger *zap.Logger) (*Mailer, error) {
	if t == nil {
		return nil, errors.New("mailer: transport is required")
	}
	fromAddr = strings.TrimSpace(fromAddr)
	if fromAddr == "" {
		return nil, errors.New("mailer: from address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	from := (&mail.Address{Name: fromName, Address: fromAddr}).String()
	return &Mailer{transport: t, from: from, log: logger}, nil
}

// From returns the formatted sender address.
func (m *Mailer) From() string { return m.from }

// Send delivers msg through the transport.
func (m *Mailer) Send(ctx context.Context, msg Email) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("mailer: recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.transport.Send(ctx, m.from, msg)
}
