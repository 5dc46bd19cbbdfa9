package workflow

import (
	"fmt"
	"strings"

	"github.com/trustform/assessd/internal/database"
	"github.com/trustform/assessd/internal/events"
	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/model"
)

// AddRespondent creates a respondent seat paid with one respondent credit.
// The credit is consumed in the same transaction as the insert.
func (s *Store) AddRespondent(assessmentID uint, dto *model.RespondentPostDTO) (*model.Respondent, error) {
	if dto == nil || !strings.Contains(dto.Email, "@") {
		return nil, fault.BadRequestf("valid email is required")
	}

	a, err := s.GetAssessment(assessmentID)
	if err != nil {
		return nil, err
	}

	r := &model.Respondent{
		AssessmentID:      a.ID,
		Email:             strings.TrimSpace(dto.Email),
		Name:              dto.Name,
		Role:              dto.Role,
		Seniority:         dto.Seniority,
		AssignedQuestions: dto.AssignedQuestions,
	}

	desc := fmt.Sprintf("respondent %s for assessment %d", r.Email, a.ID)

	balance, err := s.ledger.Spend(a.OrganizationID, model.RespondentCredit, RespondentCost, desc, func(tx *database.DatabaseManager) error {
		n, err := tx.RespondentQuery().Assessment(a.ID).Email(r.Email).Count()
		if err != nil {
			return err
		}

		if n > 0 {
			return fault.BadRequestf("respondent %s already added to assessment %d", r.Email, a.ID)
		}

		return tx.Create(r)
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info(fmt.Sprintf("respondent %d %s added to assessment %d, %s balance %.2f", r.ID, r.Email, a.ID, model.RespondentCredit, balance))
	s.publish(events.RespondentAdded, a.OrganizationID, a.ID, r.ID, "")

	return r, nil
}

func (s *Store) GetRespondent(id uint) (*model.Respondent, error) {
	r, err := s.dbm.RespondentQuery().Id(id).One()
	if err != nil {
		return nil, err
	}

	if r == nil {
		return nil, fault.NotFoundf("respondent %d", id)
	}

	return r, nil
}

func (s *Store) ListRespondents(assessmentID uint) ([]*model.Respondent, error) {
	return s.dbm.RespondentQuery().Assessment(assessmentID).Limit(0).Get()
}
