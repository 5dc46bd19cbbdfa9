package database

import (
	"gorm.io/gorm"

	"github.com/trustform/assessd/internal/model"
)

type InvitationQuery struct {
	Query[model.Invitation]
	id           uint
	assessmentID uint
	token        string
	status       model.InvitationStatus
	full         bool
}

func NewInvitationQuery(db *gorm.DB) *InvitationQuery {
	return &InvitationQuery{Query: newQuery[model.Invitation](db, "invited_at")}
}

func (q *InvitationQuery) Order(s string) *InvitationQuery {
	q.order = s
	return q
}

func (q *InvitationQuery) Limit(n int) *InvitationQuery {
	q.limit = n
	return q
}

func (q *InvitationQuery) Id(id uint) *InvitationQuery {
	q.id = id
	return q
}

func (q *InvitationQuery) Assessment(id uint) *InvitationQuery {
	q.assessmentID = id
	return q
}

func (q *InvitationQuery) Token(token string) *InvitationQuery {
	q.token = token
	return q
}

func (q *InvitationQuery) Status(s model.InvitationStatus) *InvitationQuery {
	q.status = s
	return q
}

// Full preloads the assessment together with its project.
func (q *InvitationQuery) Full() *InvitationQuery {
	q.full = true
	return q
}

func (q *InvitationQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if q.assessmentID != 0 {
		tx = tx.Where("assessment_id = ?", q.assessmentID)
	}

	if q.token != "" {
		tx = tx.Where("token = ?", q.token)
	}

	if q.status != "" {
		tx = tx.Where("status = ?", q.status)
	}

	if q.full {
		tx = tx.Preload("Assessment.Project")
	}

	return tx
}

func (q *InvitationQuery) Get() ([]*model.Invitation, error) {
	return q.get(q.where().Model(&model.Invitation{}))
}

func (q *InvitationQuery) One() (*model.Invitation, error) {
	return q.one(q.where().Model(&model.Invitation{}))
}

func (q *InvitationQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.Invitation{}))
}

func (q *InvitationQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Invitation{}), updates)
}
