// internal/app/system/mailer/logtransport.go
package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport records messages in the log instead of delivering them. It
// is meant for development; bodies are not logged since they may carry
// passwords.
type LogTransport struct {
	log *zap.Logger
}

func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{log: logger}
}

func (t *LogTransport) Send(_ context.Context, from string, msg Email) error {
	t.log.Info("email (log transport)",
		zap.String("from", from),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
