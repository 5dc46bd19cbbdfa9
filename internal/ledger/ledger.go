package ledger

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"

	"github.com/trustform/assessd/internal/database"
	"github.com/trustform/assessd/internal/fault"
	"github.com/trustform/assessd/internal/model"
	"github.com/trustform/assessd/pkg/util"
)

var transactionsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "assessd",
	Subsystem: "ledger",
	Name:      "transactions_total",
	Help:      "The total number of recorded credit transactions",
}, []string{"credit_type", "transaction_type"})

// Ledger keeps per organization credit balances together with the journal they are derived from.
type Ledger struct {
	dbm    *database.DatabaseManager
	locks  *util.KeyLock
	logger *slog.Logger
}

func New(dbm *database.DatabaseManager) *Ledger {
	return &Ledger{
		dbm:    dbm,
		locks:  util.NewKeyLock(),
		logger: slog.With("logger", "ledger"),
	}
}

// Balance returns the current balance; a missing ledger row is a zero balance.
func (l *Ledger) Balance(org string, ct model.CreditType) (float64, error) {
	row, err := l.dbm.LedgerQuery().Organization(org).CreditType(ct).One()
	if err != nil {
		return 0, err
	}

	if row == nil {
		return 0, nil
	}

	return row.Balance, nil
}

// Record applies a signed transaction and returns the new balance. It never checks for a floor.
func (l *Ledger) Record(org string, ct model.CreditType, amount float64, typ model.TransactionType, description string) (float64, error) {
	if err := validate(org, ct, amount, typ); err != nil {
		return 0, err
	}

	unlock := l.locks.Lock(lockKey(org, ct))
	defer unlock()

	var balance float64

	err := l.dbm.Transaction(func(tx *database.DatabaseManager) error {
		var err error
		balance, err = apply(tx, org, ct, amount, typ, description)

		return err
	})

	if err != nil {
		l.logger.Error("transaction failed", slog.String("org", org), slog.Any("error", err))
		return 0, err
	}

	l.recorded(org, ct, amount, typ, balance)

	return balance, nil
}

// Spend consumes amount when the balance covers it and runs fn in the same database transaction.
// Nothing is written when the balance is short or fn fails.
func (l *Ledger) Spend(org string, ct model.CreditType, amount float64, description string, fn func(tx *database.DatabaseManager) error) (float64, error) {
	if err := validate(org, ct, amount, model.Consumption); err != nil {
		return 0, err
	}

	unlock := l.locks.Lock(lockKey(org, ct))
	defer unlock()

	var balance float64

	err := l.dbm.Transaction(func(tx *database.DatabaseManager) error {
		row, err := tx.LedgerQuery().Organization(org).CreditType(ct).ForUpdate().One()
		if err != nil {
			return err
		}

		if row == nil || row.Balance < amount {
			have := 0.0
			if row != nil {
				have = row.Balance
			}

			return fault.QuotaExceededf("insufficient %s credits for %s: have %.2f, need %.2f", ct, org, have, amount)
		}

		if balance, err = apply(tx, org, ct, amount, model.Consumption, description); err != nil {
			return err
		}

		if fn != nil {
			return fn(tx)
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	l.recorded(org, ct, amount, model.Consumption, balance)

	return balance, nil
}

// History lists the newest journal entries first.
func (l *Ledger) History(org string, ct model.CreditType, limit int) ([]*model.Transaction, error) {
	q := l.dbm.TransactionQuery().Organization(org).CreditType(ct)

	if limit > 0 {
		q = q.Limit(limit)
	}

	return q.Get()
}

// Reconcile compares the stored balance with the journal sum and returns both.
func (l *Ledger) Reconcile(org string, ct model.CreditType) (stored float64, journal float64, err error) {
	unlock := l.locks.Lock(lockKey(org, ct))
	defer unlock()

	if stored, err = l.Balance(org, ct); err != nil {
		return 0, 0, err
	}

	if journal, err = l.dbm.TransactionQuery().Organization(org).CreditType(ct).SignedSum(); err != nil {
		return 0, 0, err
	}

	if math.Abs(stored-journal) > 1e-9 {
		l.logger.Warn(fmt.Sprintf("ledger drift for %s/%s: stored %.4f, journal %.4f", org, ct, stored, journal))
	}

	return stored, journal, nil
}

func (l *Ledger) recorded(org string, ct model.CreditType, amount float64, typ model.TransactionType, balance float64) {
	transactionsMetric.With(prometheus.Labels{"credit_type": string(ct), "transaction_type": string(typ)}).Inc()

	l.logger.Info(fmt.Sprintf("%s %.2f %s for %s, balance %.2f", typ, amount, ct, org, balance))
}

func apply(tx *database.DatabaseManager, org string, ct model.CreditType, amount float64, typ model.TransactionType, description string) (float64, error) {
	row, err := tx.LedgerQuery().Organization(org).CreditType(ct).ForUpdate().One()
	if err != nil {
		return 0, err
	}

	if row == nil {
		if err := tx.Create(&model.CreditLedger{OrganizationID: org, CreditType: ct, Balance: 0}); err != nil {
			return 0, err
		}
	}

	delta := typ.Sign() * amount

	if err := tx.LedgerQuery().Organization(org).CreditType(ct).Update(map[string]any{"balance": gorm.Expr("balance + ?", delta)}); err != nil {
		return 0, err
	}

	if err := tx.Create(&model.Transaction{
		OrganizationID: org,
		CreditType:     ct,
		Amount:         amount,
		Type:           typ,
		Description:    description,
	}); err != nil {
		return 0, err
	}

	if row, err = tx.LedgerQuery().Organization(org).CreditType(ct).One(); err != nil {
		return 0, err
	}

	return row.Balance, nil
}

func validate(org string, ct model.CreditType, amount float64, typ model.TransactionType) error {
	switch {
	case org == "":
		return fault.BadRequestf("organization id is required")
	case !ct.Valid():
		return fault.BadRequestf("unknown credit type %q", ct)
	case !typ.Valid():
		return fault.BadRequestf("unknown transaction type %q", typ)
	case math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0:
		return fault.BadRequestf("amount must be positive, got %v", amount)
	}

	return nil
}

func lockKey(org string, ct model.CreditType) string {
	return org + "/" + string(ct)
}
