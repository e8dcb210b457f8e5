// Package mail delivers notifications as email.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
)

// Config holds the SMTP relay settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer renders a notification and sends it through an SMTP relay.
type SMTPMailer struct {
	cfg  Config
	send sendFunc
}

var _ ports.Notifier = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// Notify renders and sends n. net/smtp has no context support, so ctx is only
// checked before dialing.
func (m *SMTPMailer) Notify(ctx context.Context, n domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := render(m.cfg.From, n)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{n.To}, msg); err != nil {
		return fmt.Errorf("send %s email: %w", n.Kind, err)
	}
	return nil
}

func render(from string, n domain.Notification) ([]byte, error) {
	tmpl, ok := messages[n.Kind]
	if !ok {
		return nil, fmt.Errorf("no email template for %q", n.Kind)
	}
	if n.To == "" || strings.ContainsAny(n.To, "\r\n") {
		return nil, fmt.Errorf("invalid recipient %q", n.To)
	}

	data := n
	if data.Name == "" {
		data.Name = n.To
	}

	var body bytes.Buffer
	if err := tmpl.body.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("render %s email: %w", n.Kind, err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", n.To)
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", tmpl.subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(strings.ReplaceAll(body.String(), "\n", "\r\n"))
	return msg.Bytes(), nil
}
