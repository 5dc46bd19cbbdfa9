package database

import (
	"gorm.io/gorm"

	"github.com/trustform/assessd/internal/model"
)

type EvidenceQuery struct {
	Query[model.Evidence]
	id          uint
	responseIDs []uint
	key         string
	statuses    []model.EvidenceStatus
}

func NewEvidenceQuery(db *gorm.DB) *EvidenceQuery {
	return &EvidenceQuery{Query: newQuery[model.Evidence](db, "id")}
}

func (q *EvidenceQuery) Limit(n int) *EvidenceQuery {
	q.limit = n
	return q
}

func (q *EvidenceQuery) Id(id uint) *EvidenceQuery {
	q.id = id
	return q
}

func (q *EvidenceQuery) Response(ids ...uint) *EvidenceQuery {
	q.responseIDs = append(q.responseIDs, ids...)
	return q
}

func (q *EvidenceQuery) StorageKey(key string) *EvidenceQuery {
	q.key = key
	return q
}

func (q *EvidenceQuery) ScanStatus(st ...model.EvidenceStatus) *EvidenceQuery {
	q.statuses = append(q.statuses, st...)
	return q
}

func (q *EvidenceQuery) where() *gorm.DB {
	tx := q.db

	if q.id != 0 {
		tx = tx.Where("id = ?", q.id)
	}

	if len(q.responseIDs) > 0 {
		tx = tx.Where("response_id IN ?", q.responseIDs)
	}

	if q.key != "" {
		tx = tx.Where("storage_key = ?", q.key)
	}

	if len(q.statuses) > 0 {
		tx = tx.Where("scan_status IN ?", q.statuses)
	}

	return tx
}

func (q *EvidenceQuery) Get() ([]*model.Evidence, error) {
	return q.get(q.where().Model(&model.Evidence{}))
}

func (q *EvidenceQuery) One() (*model.Evidence, error) {
	return q.one(q.where().Model(&model.Evidence{}))
}

func (q *EvidenceQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.Evidence{}))
}

func (q *EvidenceQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.Evidence{}), updates)
}

type ScoreQuery struct {
	Query[model.AssessmentScore]
	assessmentID uint
}

func NewScoreQuery(db *gorm.DB) *ScoreQuery {
	return &ScoreQuery{Query: newQuery[model.AssessmentScore](db, "")}
}

func (q *ScoreQuery) Assessment(id uint) *ScoreQuery {
	q.assessmentID = id
	return q
}

func (q *ScoreQuery) ForUpdate() *ScoreQuery {
	q.lock = true
	return q
}

func (q *ScoreQuery) where() *gorm.DB {
	tx := q.db

	if q.assessmentID != 0 {
		tx = tx.Where("assessment_id = ?", q.assessmentID)
	}

	return tx
}

func (q *ScoreQuery) One() (*model.AssessmentScore, error) {
	return q.one(q.where().Model(&model.AssessmentScore{}))
}

func (q *ScoreQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.AssessmentScore{}))
}

func (q *ScoreQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.AssessmentScore{}), updates)
}
