package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/rishirajshrivastava/Lynk-Backend/internal/config"
)

// Mailer delivers plain-text mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New returns an SMTP mailer when SMTP_HOST is set and a LogMailer otherwise.
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		slog.Warn("SMTP_HOST not set, mails are logged instead of sent")
		return &LogMailer{}
	}
	return &SMTPMailer{
		addr: net.JoinHostPort(cfg.SMTPHost, cfg.SMTPPort),
		host: cfg.SMTPHost,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPassword,
		from: cfg.SMTPFrom,
	}
}

type SMTPMailer struct {
	addr string
	host string
	user string
	pass string
	from string
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	msg := buildMessage(m.from, to, subject, body)

	// smtp.SendMail has no context support; bound it from the outside.
	done := make(chan error, 1)
	go func() { done <- smtp.SendMail(m.addr, auth, m.from, []string{to}, msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		slog.Info("mail sent", "to", to, "subject", subject)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + time.Now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// Message is a mail captured by LogMailer.
type Message struct {
	To      string
	Subject string
	Body    string
}

// LogMailer logs mails and keeps them in memory. Used in development and tests.
type LogMailer struct {
	mu   sync.Mutex
	sent []Message
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	m.sent = append(m.sent, Message{To: to, Subject: subject, Body: body})
	m.mu.Unlock()
	slog.Info("mail logged", "to", to, "subject", subject)
	return nil
}

// Sent returns a copy of the captured mails.
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
