package invitation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustform/assessd/internal/database"
	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/model"
	"github.com/trustform/assessd/internal/notify"
)

type recordingNotifier struct {
	mx   sync.Mutex
	sent []notify.Payload
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, _ notify.Event, p notify.Payload) error {
	n.mx.Lock()
	defer n.mx.Unlock()

	n.sent = append(n.sent, p)

	return n.err
}

func getTestManager(t *testing.T, n notify.Notifier) (*Manager, *database.DatabaseManager) {
	t.Helper()

	db, err := database.GetDatabase(":memory:", false)
	require.NoError(t, err)

	dbm := database.New(db)
	require.NoError(t, dbm.Migrate())

	return New(dbm, n, nil, Config{FrontendURL: "http://front"}), dbm
}

func newAssessment(t *testing.T, dbm *database.DatabaseManager) *model.Assessment {
	t.Helper()

	p := &model.Project{OrganizationID: "org_1", Name: "Supplier Review"}
	require.NoError(t, dbm.Create(p))

	a := &model.Assessment{OrganizationID: "org_1", Sector: "healthcare", Status: model.StatusDraft, ProjectID: &p.ID, PartnerOrgName: "Acme"}
	require.NoError(t, dbm.Create(a))

	return a
}

func TestCreateAcceptOnce(t *testing.T) {
	n := &recordingNotifier{}
	m, dbm := getTestManager(t, n)
	a := newAssessment(t, dbm)

	now := time.Now()

	inv, out, err := m.Create(context.Background(), &model.InvitationPostDTO{
		AssessmentID:   a.ID,
		PartnerEmail:   "cfo@acme.test",
		PartnerOrgName: "Acme",
		DeadlineDays:   14,
	})
	require.NoError(t, err)
	require.True(t, out.Delivered)

	require.Equal(t, model.InvitationPending, inv.Status)
	require.GreaterOrEqual(t, len(inv.Token), 32)
	require.Equal(t, model.DefaultInvitationRole, inv.Role)
	require.WithinDuration(t, now.AddDate(0, 0, 14), inv.ExpiresAt, time.Minute)

	require.Len(t, n.sent, 1)
	require.Equal(t, "Supplier Review", n.sent[0].AssessmentName)
	require.Equal(t, "http://front/partner/accept/"+inv.Token, n.sent[0].AcceptURL)

	acc, err := m.Accept(inv.Token)
	require.NoError(t, err)
	require.Equal(t, model.InvitationAccepted, acc.Status)
	require.NotNil(t, acc.AcceptedAt)

	_, err = m.Accept(inv.Token)
	require.ErrorIs(t, err, fault.InvalidState)

	_, err = m.Decline(inv.Token, "")
	require.ErrorIs(t, err, fault.InvalidState)

	stored, err := m.Get(inv.ID)
	require.NoError(t, err)
	require.Equal(t, model.InvitationAccepted, stored.Status)
}

func TestAccept_Expired(t *testing.T) {
	m, dbm := getTestManager(t, &recordingNotifier{})
	a := newAssessment(t, dbm)

	m.now = func() time.Time { return time.Now().AddDate(0, 0, -20) }

	inv, _, err := m.Create(context.Background(), &model.InvitationPostDTO{AssessmentID: a.ID, PartnerEmail: "x@acme.test", DeadlineDays: 14})
	require.NoError(t, err)

	m.now = time.Now

	_, err = m.Accept(inv.Token)
	require.ErrorIs(t, err, fault.Expired)

	stored, err := m.Get(inv.ID)
	require.NoError(t, err)
	require.Equal(t, model.InvitationExpired, stored.Status)

	_, err = m.Accept(inv.Token)
	require.ErrorIs(t, err, fault.InvalidState)
}

func TestDecline(t *testing.T) {
	m, dbm := getTestManager(t, &recordingNotifier{})
	a := newAssessment(t, dbm)

	inv, _, err := m.Create(context.Background(), &model.InvitationPostDTO{AssessmentID: a.ID, PartnerEmail: "x@acme.test"})
	require.NoError(t, err)

	d, err := m.Decline(inv.Token, "not our vendor")
	require.NoError(t, err)
	require.Equal(t, model.InvitationDeclined, d.Status)

	stored, err := m.Get(inv.ID)
	require.NoError(t, err)
	require.Equal(t, "not our vendor", stored.DeclineReason)
	require.NotNil(t, stored.DeclinedAt)
}

func TestDecline_Expired(t *testing.T) {
	m, dbm := getTestManager(t, &recordingNotifier{})
	a := newAssessment(t, dbm)

	m.now = func() time.Time { return time.Now().AddDate(0, 0, -20) }

	inv, _, err := m.Create(context.Background(), &model.InvitationPostDTO{AssessmentID: a.ID, PartnerEmail: "x@acme.test", DeadlineDays: 14})
	require.NoError(t, err)

	m.now = time.Now

	_, err = m.Decline(inv.Token, "too late")
	require.ErrorIs(t, err, fault.Expired)

	stored, err := m.Get(inv.ID)
	require.NoError(t, err)
	require.Equal(t, model.InvitationExpired, stored.Status)
	require.Empty(t, stored.DeclineReason)
	require.Nil(t, stored.DeclinedAt)

	_, err = m.Decline(inv.Token, "too late")
	require.ErrorIs(t, err, fault.InvalidState)
}

func TestDecline_NotPending(t *testing.T) {
	m, dbm := getTestManager(t, &recordingNotifier{})
	a := newAssessment(t, dbm)

	accepted, _, err := m.Create(context.Background(), &model.InvitationPostDTO{AssessmentID: a.ID, PartnerEmail: "x@acme.test"})
	require.NoError(t, err)

	_, err = m.Accept(accepted.Token)
	require.NoError(t, err)

	_, err = m.Decline(accepted.Token, "changed our mind")
	require.ErrorIs(t, err, fault.InvalidState)

	stored, err := m.Get(accepted.ID)
	require.NoError(t, err)
	require.Equal(t, model.InvitationAccepted, stored.Status)
	require.Empty(t, stored.DeclineReason)

	declined, _, err := m.Create(context.Background(), &model.InvitationPostDTO{AssessmentID: a.ID, PartnerEmail: "y@acme.test"})
	require.NoError(t, err)

	_, err = m.Decline(declined.Token, "")
	require.NoError(t, err)

	_, err = m.Decline(declined.Token, "")
	require.ErrorIs(t, err, fault.InvalidState)

	_, err = m.Accept(declined.Token)
	require.ErrorIs(t, err, fault.InvalidState)

	_, err = m.Decline("no-such-token", "")
	require.ErrorIs(t, err, fault.NotFound)
}

func TestCreate_NotifierFailure(t *testing.T) {
	m, dbm := getTestManager(t, &recordingNotifier{err: errors.New("smtp down")})
	a := newAssessment(t, dbm)

	inv, out, err := m.Create(context.Background(), &model.InvitationPostDTO{AssessmentID: a.ID, PartnerEmail: "x@acme.test"})
	require.NoError(t, err)
	require.True(t, out.Failed())
	require.Contains(t, out.Error, "smtp down")

	stored, err := m.ByToken(inv.Token)
	require.NoError(t, err)
	require.Equal(t, model.InvitationPending, stored.Status)
}

func TestCreate_Errors(t *testing.T) {
	m, _ := getTestManager(t, nil)

	_, _, err := m.Create(context.Background(), &model.InvitationPostDTO{AssessmentID: 77, PartnerEmail: "x@acme.test"})
	require.ErrorIs(t, err, fault.NotFound)

	_, _, err = m.Create(context.Background(), &model.InvitationPostDTO{AssessmentID: 77})
	require.ErrorIs(t, err, fault.BadRequest)

	_, err = m.Accept("no-such-token")
	require.ErrorIs(t, err, fault.NotFound)
}

func TestResend(t *testing.T) {
	n := &recordingNotifier{}
	m, dbm := getTestManager(t, n)
	a := newAssessment(t, dbm)

	inv, _, err := m.Create(context.Background(), &model.InvitationPostDTO{AssessmentID: a.ID, PartnerEmail: "x@acme.test"})
	require.NoError(t, err)

	r, out, err := m.Resend(context.Background(), inv.ID)
	require.NoError(t, err)
	require.True(t, out.Delivered)
	require.Equal(t, inv.Token, r.Token)
	require.WithinDuration(t, inv.ExpiresAt, r.ExpiresAt, time.Second)
	require.Len(t, n.sent, 2)
	require.Equal(t, n.sent[0].AcceptURL, n.sent[1].AcceptURL)

	_, err = m.Accept(inv.Token)
	require.NoError(t, err)

	_, _, err = m.Resend(context.Background(), inv.ID)
	require.ErrorIs(t, err, fault.InvalidState)

	list, err := m.List(a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestNewToken(t *testing.T) {
	seen := make(map[string]bool)

	for range 100 {
		tok, err := NewToken()
		require.NoError(t, err)
		require.Len(t, tok, 43)
		require.False(t, seen[tok])

		seen[tok] = true
	}
}
