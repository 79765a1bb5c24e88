package email

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"practice_reminder_service/internal/infra/config"
)

// SMTPSender delivers reminder emails over SMTP, with optional implicit TLS.
// It implements the mail.Sender capability consumed by the dispatch loop.
type SMTPSender struct {
	server    string
	port      int
	username  string
	password  string
	tlsOn     bool
	fromEmail string
	fromName  string
}

func NewSMTPSender(cfg *config.AppConfig) *SMTPSender {
	return &SMTPSender{
		server:    cfg.SMTPServer,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		tlsOn:     cfg.SMTPTLS,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

// Send builds the MIME message and delivers it. When htmlBody is non-empty
// it is sent as text/html; otherwise body goes out as plain text.
func (s *SMTPSender) Send(to, subject, body, htmlBody string) error {
	if s.server == "" {
		return fmt.Errorf("SMTP server is not configured")
	}

	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	headers["To"] = to
	headers["Subject"] = subject

	content := body
	if htmlBody != "" {
		headers["MIME-Version"] = "1.0"
		headers["Content-Type"] = "text/html; charset=UTF-8"
		content = htmlBody
	} else {
		headers["Content-Type"] = "text/plain; charset=UTF-8"
	}

	var message strings.Builder
	for key, value := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", key, value))
	}
	message.WriteString("\r\n")
	message.WriteString(content)

	auth := smtp.PlainAuth("", s.username, s.password, s.server)
	serverAddr := fmt.Sprintf("%s:%d", s.server, s.port)

	if !s.tlsOn {
		return smtp.SendMail(serverAddr, auth, s.fromEmail, []string{to}, []byte(message.String()))
	}

	tlsConfig := &tls.Config{ServerName: s.server}
	conn, err := tls.Dial("tcp", serverAddr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.server)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(s.fromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to add recipient %s: %w", to, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data connection: %w", err)
	}
	if _, err = w.Write([]byte(message.String())); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data connection: %w", err)
	}
	return client.Quit()
}
