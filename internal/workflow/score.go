package workflow

import (
	"errors"
	"fmt"

	"github.com/trustform/assessd/internal/database"
	"github.com/trustform/assessd/internal/events"
	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/model"
)

// SaveScore stores the scoring result and moves the assessment to ANALYST_REVIEW in one transaction.
// A row left over for the assessment (restored or imported data) is replaced
// and marked unreviewed again.
func (s *Store) SaveScore(id uint, res *model.ScoringResult) (*model.AssessmentScore, error) {
	if res == nil {
		return nil, fault.BadRequestf("empty scoring result")
	}

	var a *model.Assessment
	var sc *model.AssessmentScore

	err := s.dbm.Transaction(func(tx *database.DatabaseManager) error {
		var err error

		if a, err = tx.AssessmentQuery().Id(id).ForUpdate().One(); err != nil {
			return err
		}

		if a == nil {
			return fault.NotFoundf("assessment %d", id)
		}

		if !a.Status.CanTransitionTo(model.StatusAnalystReview) {
			return fault.InvalidStatef("assessment %d is %s, cannot store a score", id, a.Status)
		}

		if sc, err = tx.ScoreQuery().Assessment(id).ForUpdate().One(); err != nil {
			return err
		}

		if sc == nil {
			sc = &model.AssessmentScore{AssessmentID: id}
		}

		sc.OverallScore = res.OverallScore
		sc.Confidence = res.Confidence
		sc.LayerScores = res.LayerScores
		sc.VetoResults = res.VetoResults
		sc.Narrative = res.Narrative
		sc.GeneratedAt = s.now()
		sc.AnalystReviewed = false

		if sc.ID == 0 {
			err = tx.Create(sc)
		} else {
			err = tx.Save(sc)
		}

		if err != nil {
			return err
		}

		if err := tx.AssessmentQuery().Id(id).Status(a.Status).Update(map[string]any{"status": model.StatusAnalystReview}); err != nil {
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

	a.Status = model.StatusAnalystReview

	s.logger.Info(fmt.Sprintf("assessment %d scored %.2f (confidence %.2f)", id, sc.OverallScore, sc.Confidence))
	s.publish(events.AssessmentScored, a.OrganizationID, a.ID, sc.ID, string(a.Status))

	return sc, nil
}

func (s *Store) GetScore(id uint) (*model.AssessmentScore, error) {
	sc, err := s.dbm.ScoreQuery().Assessment(id).One()
	if err != nil {
		return nil, err
	}

	if sc == nil {
		return nil, fault.NotFoundf("score for assessment %d", id)
	}

	return sc, nil
}
