package workflow

import (
	"log/slog"
	"time"

	"github.com/trustform/assessd/internal/cache"
	"github.com/trustform/assessd/internal/database"
	"github.com/trustform/assessd/internal/events"
	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/ledger"
	"github.com/trustform/assessd/internal/storage"
)

const orgCacheTTL = 10 * time.Minute

// RespondentCost is the number of respondent credits one respondent seat consumes.
const RespondentCost = 1.0

// Store is the system of record for projects, assessments, respondents, responses, evidence and scores.
type Store struct {
	dbm     *database.DatabaseManager
	ledger  *ledger.Ledger
	storage storage.Storage
	bus     *events.Bus[events.Event]
	orgs    *cache.Cache[uint, string]
	now     func() time.Time
	logger  *slog.Logger
}

func New(dbm *database.DatabaseManager, l *ledger.Ledger, st storage.Storage, bus *events.Bus[events.Event]) *Store {
	s := &Store{
		dbm:     dbm,
		ledger:  l,
		storage: st,
		bus:     bus,
		now:     time.Now,
		logger:  slog.With("logger", "workflow"),
	}

	s.orgs = cache.NewWithTTL(orgCacheTTL, s.loadOrg)

	return s
}

// CleanCache drops stale organization lookups.
func (s *Store) CleanCache() {
	s.orgs.Clean()
}

func (s *Store) loadOrg(assessmentID uint) (string, error) {
	a, err := s.dbm.AssessmentQuery().Id(assessmentID).One()
	if err != nil {
		return "", err
	}

	if a == nil {
		return "", fault.NotFoundf("assessment %d", assessmentID)
	}

	return a.OrganizationID, nil
}

// orgOf resolves the owner of an assessment for event routing. The owner never changes.
func (s *Store) orgOf(assessmentID uint) string {
	org, err := s.orgs.Load(assessmentID)
	if err != nil {
		s.logger.Debug("can't resolve assessment owner", slog.Any("error", err))
		return ""
	}

	return org
}

func (s *Store) publish(kind, org string, assessmentID, objectID uint, status string) {
	ev := events.NewEvent(kind, org, assessmentID)
	ev.ObjectID = objectID
	ev.Status = status

	s.bus.Publish(ev)
}
