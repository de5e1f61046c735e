package email

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/fhic/bankcore/internal/config"
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

// SendBillReminder sends a reminder for an upcoming or missed bill payment.
func (s *Sender) SendBillReminder(to, name, billName string, amount float64, dueDate string, missed bool) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	if missed {
		e.Subject = fmt.Sprintf("Missed Payment: %s", billName)
	} else {
		e.Subject = fmt.Sprintf("Upcoming Bill: %s", billName)
	}

	body := fmt.Sprintf("Dear %s,\n\n", name)
	if missed {
		body += fmt.Sprintf(
			"Your %s payment of INR %.2f due on %s was missed.\n"+
				"Please pay at the earliest to avoid service disruption.\n",
			billName, amount, dueDate,
		)
	} else {
		body += fmt.Sprintf(
			"This is a reminder that your %s payment of INR %.2f is due on %s.\n"+
				"Please ensure sufficient funds are available in your account.\n",
			billName, amount, dueDate,
		)
	}
	body += "\nBest regards,\nFHIC Bank"
	e.Text = []byte(body)

	return s.send(e, to)
}

// SendEMIReminder sends a loan EMI due reminder.
func (s *Sender) SendEMIReminder(to, name, loanID string, emi float64, dueDate string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Loan EMI Due: %s", loanID)

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your EMI of INR %.2f for loan %s is due on %s.\n"+
			"Timely payment keeps your credit score healthy.\n"+
			"\nBest regards,\nFHIC Bank",
		name, emi, loanID, dueDate,
	)
	e.Text = []byte(body)

	return s.send(e, to)
}

func (s *Sender) send(e *email.Email, to string) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
