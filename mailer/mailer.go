// Package mailer sends the registration welcome mail. Sending happens in a
// goroutine and failures are only logged; registration never waits on SMTP.
package mailer

import (
	"gopkg.in/gomail.v2"

	"github.com/healthq/healthq/config"
	"github.com/healthq/healthq/logger"
)

type Mailer struct {
	cfg config.Mail
	log *logger.Logger
}

func New(cfg config.Mail, log *logger.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// SendWelcome mails a greeting to a freshly registered user.
func (m *Mailer) SendWelcome(email, name string) {
	if !m.cfg.Enabled {
		return
	}

	go func() {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.cfg.From)
		msg.SetHeader("To", email)
		msg.SetHeader("Subject", "Welcome to HealthQ")
		msg.SetBody("text/html", `
			<p>Hi `+name+`,</p>
			<p>Thank you for registering with HealthQ, your AI health assistant.</p>
			<p>Remember: HealthQ is not a doctor. For serious medical concerns, please consult a healthcare professional.</p>
		`)

		dialer := gomail.NewDialer(m.cfg.Server, m.cfg.Port, m.cfg.Username, m.cfg.Password)
		if err := dialer.DialAndSend(msg); err != nil {
			m.log.Error("failed to send welcome mail", "email", email, "error", err)
		}
	}()
}
