// Package mailer sends plain SMTP mail.
package mailer

import (
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// Config describes the SMTP relay.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Mailer sends email through an SMTP relay.
type Mailer struct {
	cfg  Config
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New returns a Mailer for cfg. Host and From are required.
func New(cfg Config) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mailer: SMTP host cannot be empty")
	}
	if cfg.From == "" {
		return nil, errors.New("mailer: sender address cannot be empty")
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &Mailer{cfg: cfg, send: smtp.SendMail}, nil
}

// Send delivers one message. The content type is text/html when the body
// looks like HTML, text/plain otherwise.
func (m *Mailer) Send(recipient, subject, body string) error {
	if recipient == "" {
		return errors.New("mailer: recipient email address cannot be empty")
	}
	if subject == "" {
		return errors.New("mailer: email subject cannot be empty")
	}
	if strings.ContainsAny(recipient+subject, "\r\n") {
		return errors.New("mailer: header values cannot contain line breaks")
	}

	msg := BuildMessage(m.cfg.From, recipient, subject, body)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(net.JoinHostPort(m.cfg.Host, m.cfg.Port), auth, m.cfg.From, []string{recipient}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// BuildMessage renders the RFC 5322 message bytes.
func BuildMessage(from, to, subject, body string) []byte {
	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", to, from, subject, contentType, body))
}
