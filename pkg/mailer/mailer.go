// Package mailer sends transactional email through a configured backend:
// SendGrid when an API key is set, plain SMTP when a host is set, and a
// log-only sender otherwise (useful in development and tests).
package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/conflearn/backend/config"
)

// Mailer delivers a single message. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// New picks a backend from config.
func New(cfg config.EmailConfig, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch {
	case cfg.APIKey != "":
		return newSendgridMailer(cfg, logger)
	case cfg.SMTPHost != "":
		return newSMTPMailer(cfg, logger)
	default:
		logger.Warn("no email backend configured, using log-only mailer")
		return &logMailer{logger: logger}
	}
}

// logMailer logs instead of sending.
type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Info("email (log-only)", zap.String("to", to), zap.String("subject", subject))
	return nil
}
