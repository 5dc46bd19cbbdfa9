package database

import (
	"gorm.io/gorm"

	"github.com/trustform/assessd/internal/model"
)

type LedgerQuery struct {
	Query[model.CreditLedger]
	orgID      string
	creditType model.CreditType
}

func NewLedgerQuery(db *gorm.DB) *LedgerQuery {
	return &LedgerQuery{Query: newQuery[model.CreditLedger](db, "")}
}

func (q *LedgerQuery) Organization(org string) *LedgerQuery {
	q.orgID = org
	return q
}

func (q *LedgerQuery) CreditType(t model.CreditType) *LedgerQuery {
	q.creditType = t
	return q
}

func (q *LedgerQuery) ForUpdate() *LedgerQuery {
	q.lock = true
	return q
}

func (q *LedgerQuery) where() *gorm.DB {
	tx := q.db

	if q.orgID != "" {
		tx = tx.Where("organization_id = ?", q.orgID)
	}

	if q.creditType != "" {
		tx = tx.Where("credit_type = ?", q.creditType)
	}

	return tx
}

func (q *LedgerQuery) Get() ([]*model.CreditLedger, error) {
	return q.get(q.where().Model(&model.CreditLedger{}))
}

func (q *LedgerQuery) One() (*model.CreditLedger, error) {
	return q.one(q.where().Model(&model.CreditLedger{}))
}

func (q *LedgerQuery) Update(updates map[string]any) error {
	return q.updateOrError(q.where().Model(&model.CreditLedger{}), updates)
}

type TransactionQuery struct {
	Query[model.Transaction]
	orgID       string
	creditType  model.CreditType
	typ         model.TransactionType
	description string
}

func NewTransactionQuery(db *gorm.DB) *TransactionQuery {
	return &TransactionQuery{Query: newQuery[model.Transaction](db, "id DESC")}
}

func (q *TransactionQuery) Order(s string) *TransactionQuery {
	q.order = s
	return q
}

func (q *TransactionQuery) Limit(n int) *TransactionQuery {
	q.limit = n
	return q
}

func (q *TransactionQuery) Organization(org string) *TransactionQuery {
	q.orgID = org
	return q
}

func (q *TransactionQuery) CreditType(t model.CreditType) *TransactionQuery {
	q.creditType = t
	return q
}

func (q *TransactionQuery) Type(t model.TransactionType) *TransactionQuery {
	q.typ = t
	return q
}

func (q *TransactionQuery) Description(d string) *TransactionQuery {
	q.description = d
	return q
}

func (q *TransactionQuery) where() *gorm.DB {
	tx := q.db

	if q.orgID != "" {
		tx = tx.Where("organization_id = ?", q.orgID)
	}

	if q.creditType != "" {
		tx = tx.Where("credit_type = ?", q.creditType)
	}

	if q.typ != "" {
		tx = tx.Where("transaction_type = ?", q.typ)
	}

	if q.description != "" {
		tx = tx.Where("description = ?", q.description)
	}

	return tx
}

func (q *TransactionQuery) Get() ([]*model.Transaction, error) {
	return q.get(q.where().Model(&model.Transaction{}))
}

func (q *TransactionQuery) Count() (int64, error) {
	return q.count(q.where().Model(&model.Transaction{}))
}

// SignedSum recomputes a balance from the journal.
func (q *TransactionQuery) SignedSum() (float64, error) {
	var sum float64

	err := q.where().Model(&model.Transaction{}).
		Select("COALESCE(SUM(CASE WHEN transaction_type = ? THEN -amount ELSE amount END), 0)", model.Consumption).
		Scan(&sum).Error

	return sum, err
}
