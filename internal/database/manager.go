package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/trustform/assessd/internal/model"
)

type DatabaseManager struct {
	db     *gorm.DB
	logger *slog.Logger
}

func New(db *gorm.DB) *DatabaseManager {
	m := &DatabaseManager{
		db:     db,
		logger: slog.With("logger", "dbm"),
	}

	return m
}

func (mm *DatabaseManager) Create(s any) error {
	if mm == nil || mm.db == nil {
		return fmt.Errorf("no database")
	}

	err := mm.db.Create(s).Error

	if err != nil {
		mm.logger.Error("error create object", slog.Any("error", err))
	}

	return err
}

func (mm *DatabaseManager) Save(s any) error {
	if mm == nil || mm.db == nil {
		return fmt.Errorf("no database")
	}

	err := mm.db.Save(s).Error

	if err != nil {
		mm.logger.Error("error saving object", slog.Any("error", err))
	}

	return err
}

// Transaction runs fn against a manager bound to a single database transaction.
// Queries inside fn must go through tx, never through the outer manager.
func (mm *DatabaseManager) Transaction(fn func(tx *DatabaseManager) error) error {
	if mm == nil || mm.db == nil {
		return fmt.Errorf("no database")
	}

	return mm.db.Transaction(func(tx *gorm.DB) error {
		return fn(&DatabaseManager{db: tx, logger: mm.logger})
	})
}

func (mm *DatabaseManager) ProjectQuery() *ProjectQuery {
	return NewProjectQuery(mm.db)
}

func (mm *DatabaseManager) AssessmentQuery() *AssessmentQuery {
	return NewAssessmentQuery(mm.db)
}

func (mm *DatabaseManager) InvitationQuery() *InvitationQuery {
	return NewInvitationQuery(mm.db)
}

func (mm *DatabaseManager) RespondentQuery() *RespondentQuery {
	return NewRespondentQuery(mm.db)
}

func (mm *DatabaseManager) ResponseQuery() *ResponseQuery {
	return NewResponseQuery(mm.db)
}

func (mm *DatabaseManager) EvidenceQuery() *EvidenceQuery {
	return NewEvidenceQuery(mm.db)
}

func (mm *DatabaseManager) ScoreQuery() *ScoreQuery {
	return NewScoreQuery(mm.db)
}

func (mm *DatabaseManager) LedgerQuery() *LedgerQuery {
	return NewLedgerQuery(mm.db)
}

func (mm *DatabaseManager) TransactionQuery() *TransactionQuery {
	return NewTransactionQuery(mm.db)
}

func (mm *DatabaseManager) Migrate() error {
	if mm == nil || mm.db == nil {
		return fmt.Errorf("no database")
	}

	return mm.db.AutoMigrate(
		&model.Project{},
		&model.Assessment{},
		&model.Invitation{},
		&model.Respondent{},
		&model.Response{},
		&model.Evidence{},
		&model.AssessmentScore{},
		&model.CreditLedger{},
		&model.Transaction{},
	)
}
