package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrImmutable = errors.New("journal entries are immutable")

type CreditLedger struct {
	ID             uint       `gorm:"primaryKey"`
	OrganizationID string     `gorm:"uniqueIndex:idx_ledger_org_type;not null;size:255"`
	CreditType     CreditType `gorm:"uniqueIndex:idx_ledger_org_type;not null;size:8"`
	Balance        float64    `gorm:"not null;default:0"`
	UpdatedAt      time.Time  `gorm:"type:timestamp"`
}

func (CreditLedger) TableName() string {
	return "credit_ledger"
}

type Transaction struct {
	ID             uint            `gorm:"primaryKey"`
	CreatedAt      time.Time       `gorm:"type:timestamp"`
	OrganizationID string          `gorm:"index:idx_tx_org_type;not null;size:255"`
	CreditType     CreditType      `gorm:"index:idx_tx_org_type;not null;size:8"`
	Amount         float64         `gorm:"not null"`
	Type           TransactionType `gorm:"column:transaction_type;not null;size:16"`
	Description    string          `gorm:"size:512"`
}

func (t *Transaction) BeforeUpdate(*gorm.DB) error {
	return ErrImmutable
}

func (t *Transaction) BeforeDelete(*gorm.DB) error {
	return ErrImmutable
}

// Signed is the effect of this entry on the balance.
func (t *Transaction) Signed() float64 {
	return t.Type.Sign() * t.Amount
}

type TransactionDTO struct {
	ID             uint            `json:"id"`
	OrganizationID string          `json:"organization_id"`
	CreditType     CreditType      `json:"credit_type"`
	Amount         float64         `json:"amount"`
	Type           TransactionType `json:"transaction_type"`
	Description    string          `json:"description,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type TransactionPostDTO struct {
	CreditType  CreditType      `json:"credit_type" yaml:"credit_type"`
	Amount      float64         `json:"amount" yaml:"amount"`
	Type        TransactionType `json:"transaction_type,omitempty" yaml:"transaction_type,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
}

// CreditSeed is one entry of the credits seed file.
type CreditSeed struct {
	OrganizationID     string `yaml:"organization_id"`
	TransactionPostDTO `yaml:",inline"`
}

type BalanceDTO struct {
	OrganizationID string     `json:"organization_id"`
	CreditType     CreditType `json:"credit_type"`
	Balance        float64    `json:"balance"`
}

func (t *Transaction) DTO() *TransactionDTO {
	if t == nil {
		return nil
	}

	return &TransactionDTO{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		CreditType:     t.CreditType,
		Amount:         t.Amount,
		Type:           t.Type,
		Description:    t.Description,
		CreatedAt:      t.CreatedAt,
	}
}
