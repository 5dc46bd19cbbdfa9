package workflow

import (
	"errors"
	"fmt"

	"github.com/trustform/assessd/internal/database"
	"github.com/trustform/assessd/internal/events"
	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/model"
)

// UpsertResponse stores the answer of a respondent to a question. A repeated answer
// to the same question replaces the previous one. created reports whether a new row was inserted.
func (s *Store) UpsertResponse(dto *model.ResponsePostDTO) (res *model.Response, created bool, err error) {
	if dto == nil || dto.QuestionID == "" {
		return nil, false, fault.BadRequestf("question_id is required")
	}

	r, err := s.GetRespondent(dto.RespondentID)
	if err != nil {
		return nil, false, err
	}

	res, err = s.dbm.ResponseQuery().Respondent(r.ID).Question(dto.QuestionID).One()
	if err != nil {
		return nil, false, err
	}

	if res == nil {
		res = &model.Response{RespondentID: r.ID, QuestionID: dto.QuestionID, Answer: dto.Answer, Context: dto.Context}

		if err = s.dbm.Create(res); err == nil {
			created = true
		} else {
			// a concurrent writer inserted the row first
			if res, _ = s.dbm.ResponseQuery().Respondent(r.ID).Question(dto.QuestionID).One(); res == nil {
				return nil, false, err
			}
		}
	}

	if !created {
		res.Answer = dto.Answer
		res.Context = dto.Context

		if err = s.dbm.Save(res); err != nil {
			return nil, false, err
		}
	}

	s.logger.Debug(fmt.Sprintf("response %d for respondent %d question %s saved", res.ID, r.ID, res.QuestionID))
	s.publish(events.ResponseSaved, s.orgOf(r.AssessmentID), r.AssessmentID, res.ID, "")

	return res, created, nil
}

func (s *Store) GetResponse(id uint) (*model.Response, error) {
	r, err := s.dbm.ResponseQuery().Id(id).One()
	if err != nil {
		return nil, err
	}

	if r == nil {
		return nil, fault.NotFoundf("response %d", id)
	}

	return r, nil
}

// ResponseAssessment returns the assessment a response belongs to.
func (s *Store) ResponseAssessment(responseID uint) (*model.Assessment, error) {
	res, err := s.GetResponse(responseID)
	if err != nil {
		return nil, err
	}

	r, err := s.GetRespondent(res.RespondentID)
	if err != nil {
		return nil, err
	}

	return s.GetAssessment(r.AssessmentID)
}

func (s *Store) ListResponses(respondentID uint) ([]*model.Response, error) {
	return s.dbm.ResponseQuery().Respondent(respondentID).Limit(0).Get()
}

// SubmitResponse marks a response final.
func (s *Store) SubmitResponse(id uint) (*model.Response, error) {
	now := s.now()

	err := s.dbm.ResponseQuery().Id(id).Update(map[string]any{"submitted_at": now})
	if errors.Is(err, database.ErrNoRows) {
		return nil, fault.NotFoundf("response %d", id)
	}

	if err != nil {
		return nil, err
	}

	return s.GetResponse(id)
}
