// Package mail sends account verification email.
package mail

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

type Mailer interface {
	SendVerification(to, fullName, verifyURL string) error
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
		from: from,
	}
}

func (m *SMTPMailer) SendVerification(to, fullName, verifyURL string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Verify your account\r\n\r\nHi %s,\r\n\r\nConfirm your email address by opening this link:\r\n\r\n%s\r\n",
		m.from, to, fullName, verifyURL,
	)
	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg))
}

// LogMailer logs the verification link instead of sending it. Used in
// development when no SMTP relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerification(to, fullName, verifyURL string) error {
	m.logger.Info("verification email", "to", to, "url", verifyURL)
	return nil
}
