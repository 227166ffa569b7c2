// Package mail relays contact-form submissions over SMTP.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rids-cl/webchat/internal/config"
)

// Message is one contact-form submission.
type Message struct {
	Nombre    string
	Email     string
	Mensaje   string
	Categoria string
}

// Mailer delivers contact messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends contact mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg config.MailConfig
}

// NewSMTPMailer constructs a mailer from SMTP settings.
func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.cfg.Host == "" {
		return fmt.Errorf("mail: SMTP relay is not configured")
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.User
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	addr := m.cfg.Host + ":" + m.cfg.Port
	body := buildBody(from, m.cfg.To, msg)
	if err := smtp.SendMail(addr, auth, from, []string{m.cfg.To}, body); err != nil {
		return fmt.Errorf("mail: sending contact message: %w", err)
	}
	return nil
}

func buildBody(from, to string, msg Message) []byte {
	categoria := msg.Categoria
	if categoria == "" {
		categoria = "general"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.Email)
	fmt.Fprintf(&b, "Subject: Nuevo contacto desde rids.cl (%s)\r\n", categoria)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Nombre: %s\n", msg.Nombre)
	fmt.Fprintf(&b, "Email: %s\n", msg.Email)
	fmt.Fprintf(&b, "Categoría: %s\n", categoria)
	b.WriteString("\nMensaje:\n")
	b.WriteString(msg.Mensaje)
	b.WriteString("\n")
	return []byte(b.String())
}
