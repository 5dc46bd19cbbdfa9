package database

import (
	"gorm.io/gorm"

	"github.com/trustform/assessd/internal/model"
)

type ProjectQuery struct {
	Query[model.Project]
	id    uint
	orgID string
}

func NewProjectQuery(db *gorm.DB) *ProjectQuery {
	return &ProjectQuery{Query: newQuery[model.Project](db, "created_at DESC")}
}

func (q *ProjectQuery) Limit(n int) *ProjectQuery {
	q.limit = n
	return q
}

func (q *ProjectQuery) Offset(n int) *ProjectQuery {
	q.offset = n
	return q
}

func (q *ProjectQuery) Id(id uint) *ProjectQuery {
	q.id = id
	return q
}

func (q *ProjectQuery) Organization(org string) *ProjectQuery {
	q.orgID = org
	return q
}

func (q *ProjectQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if q.orgID != "" {
		tx = tx.Where("organization_id = ?", q.orgID)
	}

	return tx
}

func (q *ProjectQuery) Get() ([]*model.Project, error) {
	return q.get(q.where().Model(&model.Project{}))
}

func (q *ProjectQuery) One() (*model.Project, error) {
	return q.one(q.where().Model(&model.Project{}))
}

type AssessmentQuery struct {
	Query[model.Assessment]
	id        uint
	orgID     string
	projectID uint
	statuses  []model.AssessmentStatus
	full      bool
}

func NewAssessmentQuery(db *gorm.DB) *AssessmentQuery {
	return &AssessmentQuery{Query: newQuery[model.Assessment](db, "assessments.created_at DESC")}
}

func (q *AssessmentQuery) Limit(n int) *AssessmentQuery {
	q.limit = n
	return q
}

func (q *AssessmentQuery) Offset(n int) *AssessmentQuery {
	q.offset = n
	return q
}

func (q *AssessmentQuery) Id(id uint) *AssessmentQuery {
	q.id = id
	return q
}

func (q *AssessmentQuery) Organization(org string) *AssessmentQuery {
	q.orgID = org
	return q
}

func (q *AssessmentQuery) Project(id uint) *AssessmentQuery {
	q.projectID = id
	return q
}

// Status matches any of the given statuses.
func (q *AssessmentQuery) Status(s ...model.AssessmentStatus) *AssessmentQuery {
	q.statuses = append(q.statuses, s...)
	return q
}

// ForUpdate locks the selected rows until the surrounding transaction ends.
func (q *AssessmentQuery) ForUpdate() *AssessmentQuery {
	q.lock = true
	return q
}

// Full preloads the owning project.
func (q *AssessmentQuery) Full() *AssessmentQuery {
	q.full = true
	return q
}

func (q *AssessmentQuery) Filter(f model.AssessmentFilter) *AssessmentQuery {
	q.orgID = f.OrganizationID
	q.projectID = f.ProjectID

	if f.Status != "" {
		q.statuses = []model.AssessmentStatus{f.Status}
	}

	return q
}

func (q *AssessmentQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("assessments.id = ?", q.id)
	}

	if q.orgID != "" {
		tx = tx.Where("assessments.organization_id = ?", q.orgID)
	}

	if q.projectID != 0 {
		tx = tx.Where("assessments.project_id = ?", q.projectID)
	}

	if len(q.statuses) > 0 {
		tx = tx.Where("assessments.status IN ?", q.statuses)
	}

	if q.full {
		tx = tx.Preload("Project")
	}

	return tx
}

func (q *AssessmentQuery) Get() ([]*model.Assessment, error) {
	return q.get(q.where().Model(&model.Assessment{}))
}

func (q *AssessmentQuery) One() (*model.Assessment, error) {
	return q.one(q.where().Model(&model.Assessment{}))
}

func (q *AssessmentQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.Assessment{}))
}

func (q *AssessmentQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Assessment{}), updates)
}
