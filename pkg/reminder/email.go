package reminder

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/budgetwatch/budgetwatch/internal/config"
	"github.com/jordan-wright/email"
	log "github.com/sirupsen/logrus"
)

// EmailNotifier sends reminders over SMTP.
type EmailNotifier struct {
	cfg config.SMTP
}

func NewEmailNotifier(cfg config.SMTP) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

func (n *EmailNotifier) Send(_ context.Context, recipient, subject, body string) error {
	e := email.NewEmail()
	e.From = n.cfg.From
	e.To = []string{recipient}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	if err := e.Send(addr, auth); err != nil {
		log.Errorf("Failed to send email to %s: %v", recipient, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Infof("Email sent to %s: %s", recipient, subject)
	return nil
}
