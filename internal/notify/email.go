package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"

	"vendorhub/internal/config"
)

// sendMailFunc matches smtp.SendMail so tests can capture outgoing mail
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSender delivers notifications over SMTP
type EmailSender struct {
	cfg      *config.EmailConfig
	sendMail sendMailFunc
}

// NewEmailSender creates an SMTP sender
func NewEmailSender(cfg *config.EmailConfig) *EmailSender {
	return &EmailSender{cfg: cfg, sendMail: smtp.SendMail}
}

// Name returns "email"
func (s *EmailSender) Name() string {
	return "email"
}

// Send sends an HTML email with plain text fallback
func (s *EmailSender) Send(ctx context.Context, to string, content Content) error {
	if !s.cfg.Enabled {
		log.Printf("[EMAIL] Would send to %s: %s", to, content.Subject)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.cfg.SMTPHost == "" || s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("email service not properly configured")
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	// net/smtp has no context support; run it aside so ctx still bounds the caller
	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(addr, auth, s.cfg.FromEmail, []string{to}, s.buildMessage(to, content))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to send email: %w", ctx.Err())
	}
}

// buildMessage assembles a multipart/alternative MIME message
func (s *EmailSender) buildMessage(to string, content Content) []byte {
	from := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}

	boundary := "----=_VendorhubPart_7f3a9c"

	message := fmt.Sprintf("From: %s\r\n", from) +
		fmt.Sprintf("To: %s\r\n", to) +
		fmt.Sprintf("Subject: %s\r\n", content.Subject) +
		"MIME-Version: 1.0\r\n" +
		fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary) +
		"\r\n" +
		fmt.Sprintf("--%s\r\n", boundary) +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		content.Text + "\r\n"

	if content.HTML != "" {
		message += fmt.Sprintf("--%s\r\n", boundary) +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			content.HTML + "\r\n"
	}

	message += fmt.Sprintf("--%s--\r\n", boundary)
	return []byte(message)
}
