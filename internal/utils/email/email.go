package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/Dan9191/finance-tracker/internal/config"
	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// WelcomeMessage builds the email sent after registration
func (s *Sender) WelcomeMessage(to, firstName string) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = "Welcome to Finance Tracker"
	e.Text = []byte(fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your account has been created. Start by adding your default categories\n"+
			"and recording your first transaction.\n"+
			"\nBest regards,\nFinance Tracker", firstName))
	return e
}

// DriftMessage builds the alert listing users whose balance drifted
func (s *Sender) DriftMessage(to string, drifts []models.BalanceDrift) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Balance reconciliation: %d user(s) drifted", len(drifts))

	var body strings.Builder
	fmt.Fprintf(&body, "Reconciliation run at %s found balance drift:\n\n", time.Now().Format("2006-01-02 15:04:05"))
	for _, d := range drifts {
		status := "not repaired"
		if d.Repaired {
			status = "repaired"
		}
		fmt.Fprintf(&body, "user %d: stored %s, computed %s (%s)\n", d.UserID, d.Stored.StringFixed(2), d.Computed.StringFixed(2), status)
	}
	body.WriteString("\nFinance Tracker")
	e.Text = []byte(body.String())
	return e
}

// SendWelcome sends the registration email
func (s *Sender) SendWelcome(to, firstName string) error {
	return s.send(s.WelcomeMessage(to, firstName))
}

// SendBalanceDrift sends the reconciliation alert
func (s *Sender) SendBalanceDrift(to string, drifts []models.BalanceDrift) error {
	return s.send(s.DriftMessage(to, drifts))
}

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", strings.Join(e.To, ","), err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", strings.Join(e.To, ","), e.Subject)
	return nil
}
