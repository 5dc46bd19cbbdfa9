package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trustform/assessd/internal/fault"
)

type Event string

const (
	InvitationSent      Event = "invitation_sent"
	AssessmentSubmitted Event = "assessment_submitted"
)

var notificationsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "assessd",
	Subsystem: "notify",
	Name:      "notifications_total",
	Help:      "Notification attempts by event and result",
}, []string{"event", "result"})

type Payload struct {
	To             string
	PartnerOrgName string
	AssessmentID   uint
	AssessmentName string
	Deadline       time.Time
	AcceptURL      string
}

type Notifier interface {
	Notify(ctx context.Context, ev Event, p Payload) error
}

// Outcome is the observable result of a best-effort delivery.
type Outcome struct {
	Event     Event  `json:"event"`
	To        string `json:"to"`
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

func (o Outcome) Failed() bool {
	return !o.Delivered
}

// Deliver sends a notification and never fails the caller: errors are logged, counted and reported in the Outcome.
func Deliver(ctx context.Context, n Notifier, ev Event, p Payload, logger *slog.Logger) Outcome {
	o := Outcome{Event: ev, To: p.To}

	if n == nil {
		o.Error = "no notifier"
		notificationsMetric.With(prometheus.Labels{"event": string(ev), "result": "skipped"}).Inc()

		return o
	}

	if err := n.Notify(ctx, ev, p); err != nil {
		if !errors.Is(err, fault.NotificationFailure) {
			err = fmt.Errorf("%w: %w", fault.NotificationFailure, err)
		}

		o.Error = err.Error()
		notificationsMetric.With(prometheus.Labels{"event": string(ev), "result": "failed"}).Inc()

		if logger != nil {
			logger.Warn(fmt.Sprintf("%s to %s not delivered", ev, p.To), slog.Any("error", err))
		}

		return o
	}

	o.Delivered = true
	notificationsMetric.With(prometheus.Labels{"event": string(ev), "result": "ok"}).Inc()

	return o
}

// Subject returns the mail subject line for the event.
func Subject(ev Event, p Payload) string {
	switch ev {
	case InvitationSent:
		return "Trust Assessment Invitation - " + oneLine(p.AssessmentName)
	case AssessmentSubmitted:
		return fmt.Sprintf("Assessment #%d Submitted Successfully", p.AssessmentID)
	default:
		return string(ev)
	}
}

// oneLine folds line breaks and runs of blanks into single spaces.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Body returns the plain text message for the event.
func Body(ev Event, p Payload) string {
	switch ev {
	case InvitationSent:
		return fmt.Sprintf("Hello %s,\n\n"+
			"You have been invited to complete a trust assessment for %s.\n"+
			"Please complete it by %s.\n\n"+
			"Accept and start the assessment: %s\n",
			p.PartnerOrgName, p.AssessmentName, p.Deadline.Format("January 2, 2006"), p.AcceptURL)
	case AssessmentSubmitted:
		return fmt.Sprintf("Thank you, %s!\n\n"+
			"Your assessment (ID: %d) has been successfully submitted.\n"+
			"It is now being scored and reviewed by an analyst.\n",
			p.PartnerOrgName, p.AssessmentID)
	default:
		return ""
	}
}

// LogNotifier only logs notifications. It is used when no mail server is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: slog.With("logger", "notify")}
}

func (n *LogNotifier) Notify(_ context.Context, ev Event, p Payload) error {
	n.logger.Info(fmt.Sprintf("%s to %s: %s", ev, p.To, Subject(ev, p)))

	return nil
}
