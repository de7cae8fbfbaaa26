package dispatch

import (
	"context"
	"fmt"
	"path/filepath"

	"gopkg.in/gomail.v2"
)

// Message is one outgoing e-mail.
type Message struct {
	From        string
	To          string
	Subject     string
	Body        string
	Attachments []string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSettings configures SMTPMailer.
type SMTPSettings struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Sender is the part of gomail.Dialer SMTPMailer uses.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends mail over SMTP with STARTTLS and plain auth.
type SMTPMailer struct {
	settings SMTPSettings
	sender   Sender
}

// NewSMTPMailer checks settings and returns a mailer. Missing credentials are a
// *ConfigError.
func NewSMTPMailer(settings SMTPSettings) (*SMTPMailer, error) {
	var missing []string
	if settings.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if settings.User == "" {
		missing = append(missing, "SMTP_USER")
	}
	if settings.Password == "" {
		missing = append(missing, "SMTP_PASSWORD")
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Fields: missing}
	}
	if settings.Port == 0 {
		settings.Port = 587
	}
	if settings.From == "" {
		settings.From = settings.User
	}
	dialer := gomail.NewDialer(settings.Host, settings.Port, settings.User, settings.Password)
	return &SMTPMailer{settings: settings, sender: dialer}, nil
}

// NewSMTPMailerWithSender is NewSMTPMailer with a custom transport.
func NewSMTPMailerWithSender(settings SMTPSettings, sender Sender) *SMTPMailer {
	if settings.From == "" {
		settings.From = settings.User
	}
	return &SMTPMailer{settings: settings, sender: sender}
}

// Send implements Mailer. gomail has no context support, so a cancelled context
// returns early while the dial finishes in the background.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := BuildMessage(msg, m.settings.From)

	done := make(chan error, 1)
	go func() {
		done <- m.sender.DialAndSend(gm)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s failed: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BuildMessage converts msg into a gomail message; from is used when msg.From is empty.
func BuildMessage(msg Message, from string) *gomail.Message {
	if msg.From != "" {
		from = msg.From
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)
	for _, path := range msg.Attachments {
		gm.Attach(path, gomail.Rename(filepath.Base(path)), gomail.SetHeader(map[string][]string{
			"Content-Type": {"application/pdf"},
		}))
	}
	return gm
}
