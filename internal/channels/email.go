package channels

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/egopanda/agency/internal/config"
)

// EmailSender delivers over SMTP, or logs a dry run when no host is configured.
type EmailSender struct {
	cfg config.EmailConfig
	// send is smtp.SendMail; swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailSender(cfg config.EmailConfig) *EmailSender {
	return &EmailSender{cfg: cfg, send: smtp.SendMail}
}

func (s *EmailSender) Type() string { return TypeEmail }

func (s *EmailSender) Send(ctx context.Context, out Outbound) (Result, error) {
	to := strings.TrimSpace(out.Destination)
	if !strings.Contains(to, "@") || strings.ContainsAny(to, "\r\n") {
		return Result{}, fmt.Errorf("invalid email address %q", out.Destination)
	}
	from := strings.ToLower(out.Persona.ID) + "@" + s.cfg.Domain
	subject := payloadString(out.Payload, "subject")
	if subject == "" {
		subject = "Update from " + out.Persona.Name
	}
	subject = strings.NewReplacer("\r", " ", "\n", " ").Replace(subject)
	text := messageOrJSON(out.Payload)

	res := Result{Platform: TypeEmail, To: to, Subject: subject}
	if s.cfg.Host == "" {
		slog.Info("email dry run (smtp not configured)", "to", to, "from", from, "subject", subject)
		res.Success = true
		res.MockSent = true
		return res, nil
	}

	msg := buildMIME(from, to, subject, text, emailHTML(out, text))
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.send(addr, auth, from, []string{to}, msg); err != nil {
		return Result{}, fmt.Errorf("smtp: %w", err)
	}
	res.Success = true
	return res, nil
}

const mimeBoundary = "agency-alt-boundary"

func buildMIME(from, to, subject, text, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/alternative; boundary=" + mimeBoundary + "\r\n\r\n")
	b.WriteString("--" + mimeBoundary + "\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(text + "\r\n")
	b.WriteString("--" + mimeBoundary + "\r\nContent-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(htmlBody + "\r\n")
	b.WriteString("--" + mimeBoundary + "--\r\n")
	return []byte(b.String())
}

func emailHTML(out Outbound, text string) string {
	name := html.EscapeString(out.Persona.Name)
	return `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">` +
		`<div style="background: #` + brandColorHex + `; padding: 20px; color: white;">` +
		`<h2>Update from ` + name + `</h2><p>` + html.EscapeString(out.Brand) + ` AI Agent</p></div>` +
		`<div style="padding: 20px; background: #f9f9f9;"><p>` +
		strings.ReplaceAll(html.EscapeString(text), "\n", "<br>") +
		`</p></div></div>`
}
