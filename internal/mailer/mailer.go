package mailer

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/merchsy/internal/config"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// SMTPMailer sends transactional mail through an SMTP relay.
type SMTPMailer struct {
	from   string
	send   func(*gomail.Message) error
	logger *logger.Logger
}

func NewSMTPMailer(cfg *config.SMTPConfig, log *logger.Logger) *SMTPMailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPMailer{
		from:   cfg.From,
		send:   func(m *gomail.Message) error { return d.DialAndSend(m) },
		logger: log.Named("SMTPMailer"),
	}
}

// NewWithSender is used where delivery goes through something other than a
// live SMTP dialer.
func NewWithSender(from string, s gomail.Sender, log *logger.Logger) *SMTPMailer {
	return &SMTPMailer{
		from:   from,
		send:   func(m *gomail.Message) error { return gomail.Send(s, m) },
		logger: log.Named("SMTPMailer"),
	}
}

func (m *SMTPMailer) SendWelcome(ctx context.Context, toEmail, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "Welcome to Merchsy")
	msg.SetBody("text/plain", fmt.Sprintf("Hi %s,\n\nyour Merchsy account is ready. Start listing your merch!\n", name))

	if err := m.send(msg); err != nil {
		m.logger.Warn("Failed to send welcome email", zap.String("to", toEmail), zap.Error(err))
		return fmt.Errorf("send welcome email: %w", err)
	}
	m.logger.Info("Welcome email sent", zap.String("to", toEmail))
	return nil
}
