package invitation

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trustform/assessd/internal/database"
	"github.com/trustform/assessd/internal/events"
	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/model"
	"github.com/trustform/assessd/internal/notify"
)

const (
	tokenBytes     = 32
	tokenAttempts  = 5
	defaultDays    = 14
	acceptPathTmpl = "%s/partner/accept/%s"
)

var transitionsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "assessd",
	Subsystem: "invitations",
	Name:      "transitions_total",
	Help:      "Invitation status changes",
}, []string{"status"})

type Config struct {
	DeadlineDays int
	FrontendURL  string
}

// Manager issues partner invitations and resolves their tokens.
type Manager struct {
	dbm      *database.DatabaseManager
	notifier notify.Notifier
	bus      *events.Bus[events.Event]
	conf     Config
	now      func() time.Time
	logger   *slog.Logger
}

func New(dbm *database.DatabaseManager, notifier notify.Notifier, bus *events.Bus[events.Event], conf Config) *Manager {
	if conf.DeadlineDays <= 0 {
		conf.DeadlineDays = defaultDays
	}

	return &Manager{
		dbm:      dbm,
		notifier: notifier,
		bus:      bus,
		conf:     conf,
		now:      time.Now,
		logger:   slog.With("logger", "invitations"),
	}
}

// Create persists a PENDING invitation and then tries to notify the partner.
// A failed notification is reported in the Outcome only.
func (m *Manager) Create(ctx context.Context, req *model.InvitationPostDTO) (*model.Invitation, notify.Outcome, error) {
	if req == nil || req.PartnerEmail == "" {
		return nil, notify.Outcome{}, fault.BadRequestf("partner email is required")
	}

	if req.DeadlineDays < 0 {
		return nil, notify.Outcome{}, fault.BadRequestf("deadline_days must not be negative")
	}

	a, err := m.dbm.AssessmentQuery().Id(req.AssessmentID).Full().One()
	if err != nil {
		return nil, notify.Outcome{}, err
	}

	if a == nil {
		return nil, notify.Outcome{}, fault.NotFoundf("assessment %d", req.AssessmentID)
	}

	days := req.DeadlineDays
	if days == 0 {
		days = m.conf.DeadlineDays
	}

	role := req.Role
	if role == "" {
		role = model.DefaultInvitationRole
	}

	now := m.now()

	inv := &model.Invitation{
		AssessmentID:   a.ID,
		PartnerEmail:   req.PartnerEmail,
		PartnerOrgName: req.PartnerOrgName,
		Role:           role,
		Status:         model.InvitationPending,
		InvitedAt:      now,
		ExpiresAt:      now.AddDate(0, 0, days),
	}

	if err := m.insert(inv); err != nil {
		return nil, notify.Outcome{}, err
	}

	inv.Assessment = a

	m.logger.Info(fmt.Sprintf("invitation %d for assessment %d sent to %s", inv.ID, a.ID, inv.PartnerEmail))
	m.changed(inv, events.InvitationCreated)

	return inv, m.send(ctx, inv), nil
}

// insert retries with a fresh token when the unique index rejects the one drawn.
func (m *Manager) insert(inv *model.Invitation) error {
	for range tokenAttempts {
		token, err := NewToken()
		if err != nil {
			return err
		}

		n, err := m.dbm.InvitationQuery().Token(token).Count()
		if err != nil {
			return err
		}

		if n > 0 {
			m.logger.Warn("invitation token collision")
			continue
		}

		inv.Token = token

		if err := m.dbm.Create(inv); err != nil {
			// a concurrent insert took the same token
			if n, cerr := m.dbm.InvitationQuery().Token(token).Count(); cerr == nil && n > 0 {
				continue
			}

			return err
		}

		return nil
	}

	return fmt.Errorf("cannot issue unique invitation token")
}

func (m *Manager) Accept(token string) (*model.Invitation, error) {
	return m.resolve(token, model.InvitationAccepted, "")
}

func (m *Manager) Decline(token, reason string) (*model.Invitation, error) {
	return m.resolve(token, model.InvitationDeclined, reason)
}

func (m *Manager) resolve(token string, to model.InvitationStatus, reason string) (*model.Invitation, error) {
	inv, err := m.ByToken(token)
	if err != nil {
		return nil, err
	}

	if inv.Status != model.InvitationPending {
		return nil, fault.InvalidStatef("invitation is %s", inv.Status)
	}

	now := m.now()

	if inv.IsExpired(now) {
		if err := m.expire(inv); err != nil {
			return nil, err
		}

		return nil, fault.Expiredf("invitation expired at %s", inv.ExpiresAt.Format(time.RFC3339))
	}

	upd := map[string]any{"status": to}

	switch to {
	case model.InvitationAccepted:
		upd["accepted_at"] = now
		inv.AcceptedAt = &now
	case model.InvitationDeclined:
		upd["declined_at"] = now
		upd["decline_reason"] = reason
		inv.DeclinedAt = &now
		inv.DeclineReason = reason
	}

	if err := m.dbm.InvitationQuery().Id(inv.ID).Status(model.InvitationPending).Update(upd); err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, fault.InvalidStatef("invitation %d is no longer pending", inv.ID)
		}

		return nil, err
	}

	inv.Status = to

	m.logger.Info(fmt.Sprintf("invitation %d %s", inv.ID, to))

	if to == model.InvitationAccepted {
		m.changed(inv, events.InvitationAccepted)
	} else {
		m.changed(inv, events.InvitationDeclined)
	}

	return inv, nil
}

// expire is committed on its own so it survives the Expired error returned to the caller.
func (m *Manager) expire(inv *model.Invitation) error {
	err := m.dbm.InvitationQuery().Id(inv.ID).Status(model.InvitationPending).Update(map[string]any{"status": model.InvitationExpired})

	if err != nil && !errors.Is(err, database.ErrNoRows) {
		return err
	}

	inv.Status = model.InvitationExpired

	m.logger.Info(fmt.Sprintf("invitation %d expired", inv.ID))
	m.changed(inv, events.InvitationExpired)

	return nil
}

func (m *Manager) ByToken(token string) (*model.Invitation, error) {
	if token == "" {
		return nil, fault.NotFoundf("invitation")
	}

	inv, err := m.dbm.InvitationQuery().Token(token).Full().One()
	if err != nil {
		return nil, err
	}

	if inv == nil {
		return nil, fault.NotFoundf("invitation")
	}

	return inv, nil
}

func (m *Manager) Get(id uint) (*model.Invitation, error) {
	inv, err := m.dbm.InvitationQuery().Id(id).Full().One()
	if err != nil {
		return nil, err
	}

	if inv == nil {
		return nil, fault.NotFoundf("invitation %d", id)
	}

	return inv, nil
}

func (m *Manager) List(assessmentID uint) ([]*model.Invitation, error) {
	return m.dbm.InvitationQuery().Assessment(assessmentID).Order("invited_at, id").Get()
}

// Resend sends the notification again keeping the token and expiry.
func (m *Manager) Resend(ctx context.Context, id uint) (*model.Invitation, notify.Outcome, error) {
	inv, err := m.Get(id)
	if err != nil {
		return nil, notify.Outcome{}, err
	}

	if inv.Status != model.InvitationPending {
		return nil, notify.Outcome{}, fault.InvalidStatef("invitation is %s", inv.Status)
	}

	return inv, m.send(ctx, inv), nil
}

func (m *Manager) send(ctx context.Context, inv *model.Invitation) notify.Outcome {
	p := notify.Payload{
		To:             inv.PartnerEmail,
		PartnerOrgName: inv.PartnerOrgName,
		AssessmentID:   inv.AssessmentID,
		AssessmentName: fmt.Sprintf("Assessment #%d", inv.AssessmentID),
		Deadline:       inv.ExpiresAt,
		AcceptURL:      fmt.Sprintf(acceptPathTmpl, m.conf.FrontendURL, inv.Token),
	}

	if inv.Assessment != nil {
		p.AssessmentName = inv.Assessment.DisplayName()
	}

	return notify.Deliver(ctx, m.notifier, notify.InvitationSent, p, m.logger)
}

func (m *Manager) changed(inv *model.Invitation, kind string) {
	transitionsMetric.With(prometheus.Labels{"status": string(inv.Status)}).Inc()

	ev := events.NewEvent(kind, "", inv.AssessmentID)
	ev.ObjectID = inv.ID
	ev.Status = string(inv.Status)

	if inv.Assessment != nil {
		ev.OrganizationID = inv.Assessment.OrganizationID
	}

	m.bus.Publish(ev)
}

// NewToken returns 256 random bits encoded as unpadded base64url, 43 characters.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)

	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
