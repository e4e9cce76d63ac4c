package notify

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/headless-comments-api/internal/config"
	"github.com/rs/zerolog"
)

// Message is a single outgoing HTML email
type Message struct {
	To      string
	Subject string
	HTML    string
	// ReplyTo is optional
	ReplyTo string
}

// Mailer delivers messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer returns an SMTP mailer when SMTP is configured, otherwise a mailer that
// only logs what it would have sent.
func NewMailer(cfg config.SMTPConfig, log zerolog.Logger) Mailer {
	if !cfg.Enabled() {
		log.Warn().Msg("SMTP not configured, notifications will only be logged")
		return &logMailer{log: log.With().Str("component", "mailer").Logger()}
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer sends mail through an SMTP relay
type SMTPMailer struct {
	cfg  config.SMTPConfig
	auth smtp.Auth
}

// NewSMTPMailer creates an SMTP mailer; PLAIN auth is used when credentials are set
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.User != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{cfg: cfg, auth: auth}
}

// Send delivers msg. The SMTP exchange cannot be interrupted, so when ctx ends first
// Send returns and the exchange finishes in the background.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	body, err := m.compose(msg, time.Now())
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)
	errc := make(chan error, 1)
	go func() {
		errc <- smtp.SendMail(addr, m.auth, m.cfg.From, []string{to.Address}, body)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("send mail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// compose renders msg as an HTML message. Addresses are parsed with net/mail, so a
// value carrying extra header lines is rejected, and a non-ASCII subject is Q-encoded.
func (m *SMTPMailer) compose(msg Message, now time.Time) ([]byte, error) {
	from := &mail.Address{Name: strings.TrimSpace(m.cfg.FromName), Address: m.cfg.From}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	var b bytes.Buffer
	writeHeader(&b, "From", from.String())
	writeHeader(&b, "To", to.String())
	// an unusable Reply-To is dropped rather than failing the notification
	if replyTo, err := mail.ParseAddress(msg.ReplyTo); err == nil {
		writeHeader(&b, "Reply-To", replyTo.String())
	}
	writeHeader(&b, "Subject", mime.QEncoding.Encode("utf-8", singleLine(msg.Subject)))
	writeHeader(&b, "Date", now.Format(time.RFC1123Z))
	writeHeader(&b, "MIME-Version", "1.0")
	writeHeader(&b, "Content-Type", "text/html; charset=UTF-8")
	writeHeader(&b, "Content-Transfer-Encoding", "quoted-printable")
	b.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&b)
	if _, err := qp.Write([]byte(msg.HTML)); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return b.Bytes(), nil
}

func writeHeader(b *bytes.Buffer, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\r\n")
}

// singleLine collapses line breaks so a value stays within one header
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// logMailer records messages in the log instead of sending them
type logMailer struct {
	log zerolog.Logger
}

func (m *logMailer) Send(ctx context.Context, msg Message) error {
	m.log.Info().
		Str("to", redactEmail(msg.To)).
		Str("subject", msg.Subject).
		Msg("Notification not sent, SMTP disabled")
	return nil
}

// redactEmail keeps the first character of the local part and the domain
func redactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
