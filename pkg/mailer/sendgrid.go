package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/conflearn/backend/config"
)

type sendgridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *zap.Logger
}

func newSendgridMailer(cfg config.EmailConfig, logger *zap.Logger) *sendgridMailer {
	return &sendgridMailer{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		logger: logger,
	}
}

func (m *sendgridMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail("", to), "", htmlBody)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		m.logger.Warn("sendgrid send failed", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		m.logger.Warn("sendgrid rejected message", zap.String("to", to), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("send email: sendgrid status %d", resp.StatusCode)
	}
	m.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
