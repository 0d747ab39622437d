package jobs

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/smtp"
)

// Mailer sends transactional mail over SMTP. A nil auth means the server
// accepts unauthenticated delivery (local relays, Mailpit).
type Mailer struct {
	addr string
	from string
	auth smtp.Auth
}

// MailerConfig collects SMTP connection settings.
type MailerConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// NewMailer constructs a Mailer.
func NewMailer(cfg MailerConfig) *Mailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &Mailer{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from: cfg.From,
		auth: auth,
	}
}

// SendWithPDF delivers a message carrying one PDF attachment.
func (m *Mailer) SendWithPDF(to, subject, body, filename string, pdf []byte) error {
	const boundary = "torque-mail-boundary"

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	fmt.Fprintf(&msg, "--%s\r\n", boundary)
	msg.WriteString("Content-Type: application/pdf\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n")
	fmt.Fprintf(&msg, "Content-Disposition: attachment; filename=%q\r\n\r\n", filename)

	encoded := base64.StdEncoding.EncodeToString(pdf)
	for len(encoded) > 76 {
		msg.WriteString(encoded[:76])
		msg.WriteString("\r\n")
		encoded = encoded[76:]
	}
	msg.WriteString(encoded)
	msg.WriteString("\r\n")
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg.Bytes())
}
