package contact

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/dipan-dev/portfolio/internal/config"
	"github.com/dipan-dev/portfolio/internal/store"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer emails each message to the site owner.
type Mailer struct {
	cfg  config.SMTP
	send sendFunc
}

func NewMailer(cfg config.SMTP) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

func (m *Mailer) Notify(_ context.Context, msg store.Message) error {
	if !m.cfg.Enabled() {
		return fmt.Errorf("SMTP credentials not configured")
	}
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	addr := m.cfg.Host + ":" + m.cfg.Port
	if err := m.send(addr, auth, m.cfg.User, []string{m.cfg.To}, m.compose(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (m *Mailer) compose(msg store.Message) []byte {
	body := fmt.Sprintf(`New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, headerValue(msg.Name), headerValue(msg.Email), msg.Body)

	return []byte("To: " + m.cfg.To + "\r\n" +
		"Subject: Portfolio Contact: " + headerValue(msg.Name) + "\r\n" +
		"From: " + m.cfg.User + "\r\n" +
		"Reply-To: " + headerValue(msg.Email) + "\r\n" +
		"\r\n" +
		body + "\r\n")
}

var headerReplacer = strings.NewReplacer("\r", " ", "\n", " ")

func headerValue(s string) string { return headerReplacer.Replace(s) }
