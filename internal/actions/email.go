package actions

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"threat-monitor/internal/config"
	"threat-monitor/internal/models"
)

// EmailSender delivers alerts over SMTP using the service-wide mail
// settings; the recipient list comes from the action configuration.
type EmailSender struct {
	Config config.Config
}

func (s *EmailSender) Send(_ context.Context, act models.AlertAction, alert models.ThreatAlert) error {
	recipients, err := configRecipients(act)
	if err != nil {
		return err
	}

	smtpServer := s.Config.Email.SMTPServer
	smtpPort := s.Config.Email.SMTPPort
	username := s.Config.Email.Username
	password := s.Config.Email.Password
	if smtpServer == "" || smtpPort == 0 || username == "" || password == "" {
		return fmt.Errorf("missing Email configuration: SMTPServer, SMTPPort, Username, or Password is empty")
	}

	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(string(alert.Severity)), alert.Title)
	body := fmt.Sprintf("%s\n\nRule: %s\nSource: %s\nIndicators: %s\nAlert ID: %s",
		alert.Description, alert.RuleName, alert.Source,
		strings.Join(alert.Indicators, ", "), alert.ID)
	message := fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		strings.Join(recipients, ", "), subject, body)

	auth := smtp.PlainAuth("", username, password, smtpServer)
	addr := fmt.Sprintf("%s:%d", smtpServer, smtpPort)

	if err := smtp.SendMail(addr, auth, username, recipients, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to %v: %w", recipients, err)
	}
	return nil
}

func configRecipients(act models.AlertAction) ([]string, error) {
	raw, ok := act.Config["recipients"]
	if !ok {
		return nil, fmt.Errorf("recipients not set in email action configuration")
	}
	var recipients []string
	switch v := raw.(type) {
	case []string:
		recipients = v
	case []any:
		for _, r := range v {
			if s, ok := r.(string); ok && s != "" {
				recipients = append(recipients, s)
			}
		}
	case string:
		if v != "" {
			recipients = []string{v}
		}
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("recipients not set in email action configuration")
	}
	for _, r := range recipients {
		if !strings.Contains(r, "@") {
			return nil, fmt.Errorf("invalid email address: %s", r)
		}
	}
	return recipients, nil
}
