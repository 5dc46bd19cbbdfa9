package database

import (
	"gorm.io/gorm"

	"github.com/trustform/assessd/internal/model"
)

type RespondentQuery struct {
	Query[model.Respondent]
	id           uint
	assessmentID uint
	email        string
}

func NewRespondentQuery(db *gorm.DB) *RespondentQuery {
	return &RespondentQuery{Query: newQuery[model.Respondent](db, "id")}
}

func (q *RespondentQuery) Limit(n int) *RespondentQuery {
	q.limit = n
	return q
}

func (q *RespondentQuery) Id(id uint) *RespondentQuery {
	q.id = id
	return q
}

func (q *RespondentQuery) Assessment(id uint) *RespondentQuery {
	q.assessmentID = id
	return q
}

func (q *RespondentQuery) Email(email string) *RespondentQuery {
	q.email = email
	return q
}

func (q *RespondentQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if q.assessmentID != 0 {
		tx = tx.Where("assessment_id = ?", q.assessmentID)
	}

	if q.email != "" {
		tx = tx.Where("LOWER(email) = LOWER(?)", q.email)
	}

	return tx
}

func (q *RespondentQuery) Get() ([]*model.Respondent, error) {
	return q.get(q.where().Model(&model.Respondent{}))
}

func (q *RespondentQuery) One() (*model.Respondent, error) {
	return q.one(q.where().Model(&model.Respondent{}))
}

func (q *RespondentQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.Respondent{}))
}

type ResponseQuery struct {
	Query[model.Response]
	id            uint
	respondentIDs []uint
	questionID    string
}

func NewResponseQuery(db *gorm.DB) *ResponseQuery {
	return &ResponseQuery{Query: newQuery[model.Response](db, "id")}
}

func (q *ResponseQuery) Limit(n int) *ResponseQuery {
	q.limit = n
	return q
}

func (q *ResponseQuery) Id(id uint) *ResponseQuery {
	q.id = id
	return q
}

func (q *ResponseQuery) Respondent(ids ...uint) *ResponseQuery {
	q.respondentIDs = append(q.respondentIDs, ids...)
	return q
}

func (q *ResponseQuery) Question(id string) *ResponseQuery {
	q.questionID = id
	return q
}

func (q *ResponseQuery) ForUpdate() *ResponseQuery {
	q.lock = true
	return q
}

func (q *ResponseQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if len(q.respondentIDs) > 0 {
		tx = tx.Where("respondent_id IN ?", q.respondentIDs)
	}

	if q.questionID != "" {
		tx = tx.Where("question_id = ?", q.questionID)
	}

	return tx
}

func (q *ResponseQuery) Get() ([]*model.Response, error) {
	return q.get(q.where().Model(&model.Response{}))
}

func (q *ResponseQuery) One() (*model.Response, error) {
	return q.one(q.where().Model(&model.Response{}))
}

func (q *ResponseQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.Response{}))
}

func (q *ResponseQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Response{}), updates)
}
