package infra

import (
	"errors"
	"fmt"
	"net/smtp"

	"cashdesk/internal/config"

	"github.com/jordan-wright/email"
)

// ErrMailDisabled is returned when no SMTP host is configured.
var ErrMailDisabled = errors.New("mailer: SMTP not configured")

// Mailer sends plain-text session reports over SMTP. Every send goes through
// a circuit breaker.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	breaker  *CircuitBreaker

	// send is e.Send in production; tests swap it.
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewMailer(cfg *config.Config, breaker *CircuitBreaker) *Mailer {
	if breaker == nil {
		breaker = NewCircuitBreaker(DefaultBreakerConfig())
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		breaker:  breaker,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

func (m *Mailer) Breaker() *CircuitBreaker { return m.breaker }

// SendReport emails body to every recipient in one message.
func (m *Mailer) SendReport(to []string, subject, body string) error {
	if m.host == "" {
		return ErrMailDisabled
	}
	if len(to) == 0 {
		return errors.New("mailer: no recipients")
	}

	e := email.NewEmail()
	e.From = m.user
	e.To = to
	e.Subject = subject
	e.Text = []byte(body)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return m.breaker.Execute(func() error {
		if err := m.send(e, m.addr, auth); err != nil {
			return fmt.Errorf("mailer: send report: %w", err)
		}
		return nil
	})
}
