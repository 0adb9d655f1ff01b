package services

import (
	"taaltoren/models"

	"gorm.io/gorm"
)

// Transfer moves points between the three balances: deposit shifts
// score into balance, withdraw shifts balance into total. Each move is
// a single guarded UPDATE, so a concurrent reader never observes a
// half-applied transfer.
type Transfer struct {
	db     *gorm.DB
	ledger *Ledger
}

func NewTransfer(db *gorm.DB, ledger *Ledger) *Transfer {
	return &Transfer{db: db, ledger: ledger}
}

// Deposit moves amount from score to balance.
func (t *Transfer) Deposit(userID uint, amount int) (*models.UserStats, error) {
	return t.move(userID, amount, StatsDelta{Score: -amount, Balance: amount}, "score", ErrInsufficientScore)
}

// Withdraw moves amount from balance to total.
func (t *Transfer) Withdraw(userID uint, amount int) (*models.UserStats, error) {
	return t.move(userID, amount, StatsDelta{Balance: -amount, Total: amount}, "balance", ErrInsufficientBalance)
}

func (t *Transfer) move(userID uint, amount int, d StatsDelta, guardCol string, insufficient error) (*models.UserStats, error) {
	if amount <= 0 {
		return nil, ErrBadAmount
	}

	if _, err := t.ledger.GetOrCreate(userID); err != nil {
		return nil, err
	}

	err := t.db.Transaction(func(tx *gorm.DB) error {
		ok, err := applyGuardedDelta(tx, userID, d, guardCol, amount)
		if err != nil {
			return err
		}
		if !ok {
			return insufficient
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return loadStats(t.db, userID)
}
