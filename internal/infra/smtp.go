package infra

import (
	"fmt"
	"net/smtp"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends plain-text notifications over SMTP.
type Mailer struct {
	from string
	addr string
	auth smtp.Auth
}

func NewMailer(cfg *config.Config) *Mailer {
	m := &Mailer{
		from: cfg.SMTPUser,
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
	if cfg.SMTPUser != "" {
		m.auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return m
}

// Send delivers one message. Multiple recipients may be given.
func (m *Mailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("mailer: no recipients")
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = to
	e.Subject = subject
	e.Text = []byte(body)
	if err := e.Send(m.addr, m.auth); err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	return nil
}
