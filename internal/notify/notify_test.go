package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/trustform/assessd/internal/config"
	"github.com/trustform/assessd/internal/fault"
)

type failing struct{}

func (failing) Notify(context.Context, Event, Payload) error {
	return errors.New("connection refused")
}

func TestSubjects(t *testing.T) {
	p := Payload{AssessmentID: 42, AssessmentName: "Vendor Review"}

	require.Equal(t, "Trust Assessment Invitation - Vendor Review", Subject(InvitationSent, p))
	require.Equal(t, "Assessment #42 Submitted Successfully", Subject(AssessmentSubmitted, p))
}

func TestDeliver_Failure(t *testing.T) {
	o := Deliver(context.Background(), failing{}, InvitationSent, Payload{To: "a@b.c"}, slog.Default())

	require.True(t, o.Failed())
	require.Contains(t, o.Error, "connection refused")
	require.Equal(t, "a@b.c", o.To)

	o = Deliver(context.Background(), NewLogNotifier(), InvitationSent, Payload{To: "a@b.c"}, nil)
	require.True(t, o.Delivered)

	o = Deliver(context.Background(), nil, InvitationSent, Payload{To: "a@b.c"}, nil)
	require.True(t, o.Failed())
}

func sentMail(t *testing.T, msg *mail.Msg) string {
	t.Helper()

	var b bytes.Buffer

	_, err := msg.WriteTo(&b)
	require.NoError(t, err)

	return b.String()
}

func TestMailer(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Server: "mail", Port: 587, User: "u", Password: "p", From: "noreply@example.com"})

	var got *mail.Msg

	m.send = func(_ context.Context, msg *mail.Msg) error {
		got = msg
		return nil
	}

	err := m.Notify(context.Background(), InvitationSent, Payload{
		To:             "partner@acme.test",
		PartnerOrgName: "Acme",
		AssessmentName: "Vendor Review",
		Deadline:       time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		AcceptURL:      "http://localhost:3000/partner/accept/tkn",
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	rcpt, err := got.GetRecipients()
	require.NoError(t, err)
	require.Equal(t, []string{"partner@acme.test"}, rcpt)

	out := sentMail(t, got)
	require.Contains(t, out, "noreply@example.com")
	require.Contains(t, out, "Subject: Trust Assessment Invitation - Vendor Review\r\n")
	require.Contains(t, out, "March 15, 2026")
	require.Contains(t, out, "/partner/accept/tkn")
}

func TestMailer_HeaderInjection(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Server: "mail", Port: 587, From: "noreply@example.com"})

	var got *mail.Msg

	m.send = func(_ context.Context, msg *mail.Msg) error {
		got = msg
		return nil
	}

	err := m.Notify(context.Background(), InvitationSent, Payload{
		To:             "partner@acme.test",
		AssessmentName: "Q3 review\r\nBcc: attacker@evil.test",
	})
	require.NoError(t, err)

	out := sentMail(t, got)
	require.NotContains(t, out, "\nBcc:")

	rcpt, err := got.GetRecipients()
	require.NoError(t, err)
	require.Equal(t, []string{"partner@acme.test"}, rcpt)

	require.Equal(t, "Trust Assessment Invitation - Q3 review Bcc: attacker@evil.test",
		Subject(InvitationSent, Payload{AssessmentName: "Q3 review\r\nBcc: attacker@evil.test"}))
}

func TestMailer_EncodedSubject(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Server: "mail", Port: 587, From: "noreply@example.com"})

	var got *mail.Msg

	m.send = func(_ context.Context, msg *mail.Msg) error {
		got = msg
		return nil
	}

	require.NoError(t, m.Notify(context.Background(), InvitationSent, Payload{To: "a@b.c", AssessmentName: "Überprüfung"}))

	out := sentMail(t, got)
	require.Contains(t, out, "Subject: =?UTF-8?q?")
	require.NotContains(t, out, "Überprüfung")
}

func TestMailer_Error(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Server: "mail", Port: 25, From: "x@y.z"})
	m.send = func(context.Context, *mail.Msg) error {
		return errors.New("454 TLS not available")
	}

	err := m.Notify(context.Background(), AssessmentSubmitted, Payload{To: "a@b.c", AssessmentID: 1})
	require.ErrorIs(t, err, fault.NotificationFailure)

	err = m.Notify(context.Background(), AssessmentSubmitted, Payload{})
	require.ErrorIs(t, err, fault.NotificationFailure)

	err = m.Notify(context.Background(), AssessmentSubmitted, Payload{To: "not an address", AssessmentID: 1})
	require.ErrorIs(t, err, fault.NotificationFailure)
}
