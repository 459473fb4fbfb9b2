package mailer

import (
	"context"
	"fmt"

	"tweetapp/internal/config"
	"tweetapp/internal/middleware"

	"github.com/wneessen/go-mail"
)

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	sender string
}

// NewSMTPMailer builds an SMTP mailer from config. Callers should fall back
// to LogMailer when cfg.SMTPHost is empty.
func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPass),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &SMTPMailer{client: client, sender: cfg.MailSender}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.sender); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		middleware.MailSends.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to send mail: %w", err)
	}
	middleware.MailSends.WithLabelValues("sent").Inc()
	return nil
}

// FromConfig returns the SMTP mailer when configured, otherwise the
// log-only mailer.
func FromConfig(cfg *config.Config) (Mailer, error) {
	if cfg.SMTPHost == "" {
		return LogMailer{}, nil
	}
	return NewSMTPMailer(cfg)
}
