package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trustform/assessd/internal/database"
	"github.com/trustform/assessd/internal/events"
	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/model"
)

func (s *Store) CreateProject(dto *model.ProjectPostDTO) (*model.Project, error) {
	if dto == nil || dto.OrganizationID == "" || strings.TrimSpace(dto.Name) == "" {
		return nil, fault.BadRequestf("organization and name are required")
	}

	p := &model.Project{
		OrganizationID: dto.OrganizationID,
		Name:           strings.TrimSpace(dto.Name),
		Description:    dto.Description,
		Sector:         dto.Sector,
		ProjectType:    dto.ProjectType,
		AssessmentMode: dto.AssessmentMode,
		CreatedBy:      dto.CreatedBy,
	}

	if err := s.dbm.Create(p); err != nil {
		return nil, err
	}

	s.logger.Info(fmt.Sprintf("project %d %s created for %s", p.ID, p.Name, p.OrganizationID))

	return p, nil
}

func (s *Store) GetProject(id uint) (*model.Project, error) {
	p, err := s.dbm.ProjectQuery().Id(id).One()
	if err != nil {
		return nil, err
	}

	if p == nil {
		return nil, fault.NotFoundf("project %d", id)
	}

	return p, nil
}

func (s *Store) ListProjects(org string) ([]*model.Project, error) {
	return s.dbm.ProjectQuery().Organization(org).Get()
}

func (s *Store) CreateAssessment(dto *model.AssessmentPostDTO) (*model.Assessment, error) {
	if dto == nil || dto.OrganizationID == "" || dto.Sector == "" {
		return nil, fault.BadRequestf("organization and sector are required")
	}

	a := &model.Assessment{
		OrganizationID: dto.OrganizationID,
		Sector:         dto.Sector,
		PartnerOrgName: dto.PartnerOrgName,
		Deadline:       dto.Deadline,
		Status:         model.StatusDraft,
	}

	if dto.ProjectID != nil && *dto.ProjectID != 0 {
		p, err := s.GetProject(*dto.ProjectID)
		if err != nil {
			return nil, err
		}

		if p.OrganizationID != dto.OrganizationID {
			return nil, fault.BadRequestf("project %d belongs to another organization", p.ID)
		}

		a.ProjectID = &p.ID
	}

	if err := s.dbm.Create(a); err != nil {
		return nil, err
	}

	s.logger.Info(fmt.Sprintf("assessment %d created for %s", a.ID, a.OrganizationID))
	s.publish(events.AssessmentCreated, a.OrganizationID, a.ID, a.ID, string(a.Status))

	return a, nil
}

func (s *Store) GetAssessment(id uint) (*model.Assessment, error) {
	a, err := s.dbm.AssessmentQuery().Id(id).Full().One()
	if err != nil {
		return nil, err
	}

	if a == nil {
		return nil, fault.NotFoundf("assessment %d", id)
	}

	return a, nil
}

func (s *Store) ListAssessments(f model.AssessmentFilter) ([]*model.Assessment, error) {
	return s.dbm.AssessmentQuery().Filter(f).Full().Get()
}

// StartAssessment moves a draft into IN_PROGRESS.
func (s *Store) StartAssessment(id uint) (*model.Assessment, error) {
	return s.Transition(id, model.StatusInProgress)
}

// Transition changes the status when the state machine allows it.
// The current status is re-checked by the update itself, so a concurrent change makes it fail with InvalidState.
func (s *Store) Transition(id uint, to model.AssessmentStatus) (*model.Assessment, error) {
	return s.transition(id, to, func(from model.AssessmentStatus) bool { return from.CanTransitionTo(to) }, nil)
}

// BeginSubmission marks a DRAFT or IN_PROGRESS assessment SUBMITTED.
func (s *Store) BeginSubmission(id uint) (*model.Assessment, error) {
	now := s.now()

	a, err := s.transition(id, model.StatusSubmitted, func(from model.AssessmentStatus) bool {
		for _, st := range model.SubmittableStatuses {
			if st == from {
				return true
			}
		}

		return false
	}, map[string]any{"submitted_at": now})

	if err != nil {
		return nil, err
	}

	a.SubmittedAt = &now
	s.publish(events.AssessmentSubmitted, a.OrganizationID, a.ID, a.ID, string(a.Status))

	return a, nil
}

func (s *Store) transition(id uint, to model.AssessmentStatus, allowed func(model.AssessmentStatus) bool, extra map[string]any) (*model.Assessment, error) {
	if !to.Valid() {
		return nil, fault.BadRequestf("unknown status %q", to)
	}

	var a *model.Assessment

	err := s.dbm.Transaction(func(tx *database.DatabaseManager) error {
		var err error

		if a, err = tx.AssessmentQuery().Id(id).ForUpdate().One(); err != nil {
			return err
		}

		if a == nil {
			return fault.NotFoundf("assessment %d", id)
		}

		if !allowed(a.Status) {
			return fault.InvalidStatef("assessment %d is %s, cannot move to %s", id, a.Status, to)
		}

		upd := map[string]any{"status": to}
		for k, v := range extra {
			upd[k] = v
		}

		if err := tx.AssessmentQuery().Id(id).Status(a.Status).Update(upd); err != nil {
			if errors.Is(err, database.ErrNoRows) {
				return fault.InvalidStatef("assessment %d changed concurrently", id)
			}

			return err
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	from := a.Status
	a.Status = to

	s.logger.Info(fmt.Sprintf("assessment %d %s -> %s", id, from, to))

	if to != model.StatusSubmitted {
		s.publish(events.AssessmentTransition, a.OrganizationID, a.ID, a.ID, string(to))
	}

	return a, nil
}

// Finalize records the analyst decision on a reviewed assessment.
func (s *Store) Finalize(id uint, dto *model.FinalizeDTO) (*model.Assessment, error) {
	if dto == nil || (dto.Status != model.StatusCompleted && dto.Status != model.StatusRejected) {
		return nil, fault.BadRequestf("final status must be %s or %s", model.StatusCompleted, model.StatusRejected)
	}

	var a *model.Assessment

	err := s.dbm.Transaction(func(tx *database.DatabaseManager) error {
		var err error

		if a, err = tx.AssessmentQuery().Id(id).ForUpdate().One(); err != nil {
			return err
		}

		if a == nil {
			return fault.NotFoundf("assessment %d", id)
		}

		if !a.Status.CanTransitionTo(dto.Status) {
			return fault.InvalidStatef("assessment %d is %s, cannot move to %s", id, a.Status, dto.Status)
		}

		if err := tx.AssessmentQuery().Id(id).Status(a.Status).Update(map[string]any{"status": dto.Status}); err != nil {
			if errors.Is(err, database.ErrNoRows) {
				return fault.InvalidStatef("assessment %d changed concurrently", id)
			}

			return err
		}

		err = tx.ScoreQuery().Assessment(id).Update(map[string]any{"analyst_reviewed": true, "analyst_notes": dto.Notes})
		if errors.Is(err, database.ErrNoRows) {
			return fault.InvalidStatef("assessment %d has no score", id)
		}

		return err
	})

	if err != nil {
		return nil, err
	}

	a.Status = dto.Status

	s.logger.Info(fmt.Sprintf("assessment %d finalized as %s", id, dto.Status))
	s.publish(events.AssessmentTransition, a.OrganizationID, a.ID, a.ID, string(a.Status))

	return a, nil
}
