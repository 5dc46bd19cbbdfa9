package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/trustform/assessd/internal/config"
	"github.com/trustform/assessd/internal/fault"
)

const smtpTimeout = 30 * time.Second

// Mailer sends plain text mail over SMTP, using STARTTLS when the server offers it.
type Mailer struct {
	conf   config.SMTPConfig
	send   func(ctx context.Context, msg *mail.Msg) error
	logger *slog.Logger
}

func NewMailer(conf config.SMTPConfig) *Mailer {
	m := &Mailer{
		conf:   conf,
		logger: slog.With("logger", "notify"),
	}

	m.send = m.dialAndSend

	return m
}

func (m *Mailer) Notify(ctx context.Context, ev Event, p Payload) error {
	if p.To == "" {
		return fmt.Errorf("%w: no recipient", fault.NotificationFailure)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", fault.NotificationFailure, err)
	}

	msg, err := m.message(p.To, Subject(ev, p), Body(ev, p))
	if err != nil {
		return fmt.Errorf("%w: %w", fault.NotificationFailure, err)
	}

	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", fault.NotificationFailure, err)
	}

	m.logger.Info(fmt.Sprintf("sent %s to %s", ev, p.To))

	return nil
}

// message builds the mail; go-mail encodes header values, so a subject can't add headers.
func (m *Mailer) message(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if err := msg.From(m.conf.From); err != nil {
		return nil, fmt.Errorf("bad sender: %w", err)
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("bad recipient: %w", err)
	}

	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body)

	return msg, nil
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(m.conf.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(smtpTimeout),
	}

	if m.conf.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.conf.User),
			mail.WithPassword(m.conf.Password),
		)
	}

	c, err := mail.NewClient(m.conf.Server, opts...)
	if err != nil {
		return err
	}

	return c.DialAndSendWithContext(ctx, msg)
}
