package email

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"time"
)

// SMTPConfig holds configuration for the SMTP code sender.
type SMTPConfig struct {
	Host     string // SMTP server host (e.g., "smtp.gmail.com")
	Port     string // SMTP server port (e.g., "587")
	Account  string // SMTP username, also used as the From address
	Password string // SMTP password or app-specific password
	From     string // Optional From override
}

// SMTPSender sends verification codes via SMTP.
type SMTPSender struct {
	cfg SMTPConfig
	ttl time.Duration
}

func NewSMTPSender(cfg SMTPConfig, codeTTL time.Duration) *SMTPSender {
	return &SMTPSender{cfg: cfg, ttl: codeTTL}
}

func (s *SMTPSender) SendCode(ctx context.Context, to, code string) error {
	from := s.cfg.From
	if from == "" {
		from = s.cfg.Account
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString("Subject: Your sign-in code\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(fmt.Sprintf("Your sign-in code is %s. It expires in %d minutes.\r\n", code, int(s.ttl.Minutes())))
	buf.WriteString("If you didn't request this email, you can safely ignore it.\r\n")

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Account, s.cfg.Password, s.cfg.Host)

	if err := smtp.SendMail(addr, auth, from, []string{to}, buf.Bytes()); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
