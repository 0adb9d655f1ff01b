package services

import (
	"errors"

	"taaltoren/models"

	"gorm.io/gorm"
)

// Business errors surfaced to handlers as stable error codes.
var (
	ErrUserNotFound        = errors.New("user_not_found")
	ErrBadAmount           = errors.New("bad_amount")
	ErrInsufficientScore   = errors.New("insufficient_score")
	ErrInsufficientBalance = errors.New("insufficient_balance")
)

// StatsDelta describes an increment applied to a user's ledger row.
type StatsDelta struct {
	Score   int
	Balance int
	Total   int
}

// Ledger owns the user_stats table. All mutations are single UPDATE
// statements with in-database arithmetic, so concurrent calls for the
// same user never interleave a read-modify-write, even across multiple
// server instances.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// GetOrCreate returns the user's stats row, inserting a zeroed row on
// first access. Idempotent; a concurrent insert race resolves to the
// existing row.
func (l *Ledger) GetOrCreate(userID uint) (*models.UserStats, error) {
	var stats models.UserStats
	err := l.db.Where("user_id = ?", userID).First(&stats).Error
	if err == nil {
		return &stats, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var user models.User
	if err := l.db.Select("id").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	stats = models.UserStats{UserID: userID}
	if err := l.db.Create(&stats).Error; err != nil {
		// Lost an insert race; the row exists now.
		if ferr := l.db.Where("user_id = ?", userID).First(&stats).Error; ferr == nil {
			return &stats, nil
		}
		return nil, err
	}
	return &stats, nil
}

// ApplyDelta atomically increments the user's balances and returns the
// fresh row.
func (l *Ledger) ApplyDelta(userID uint, d StatsDelta) (*models.UserStats, error) {
	if _, err := l.GetOrCreate(userID); err != nil {
		return nil, err
	}
	if _, err := applyDelta(l.db, userID, d); err != nil {
		return nil, err
	}
	return loadStats(l.db, userID)
}

// DB exposes the underlying handle for services that compose ledger
// updates into larger transactions.
func (l *Ledger) DB() *gorm.DB {
	return l.db
}

func applyDelta(tx *gorm.DB, userID uint, d StatsDelta) (int64, error) {
	updates := deltaColumns(d)
	if len(updates) == 0 {
		return 0, nil
	}
	res := tx.Model(&models.UserStats{}).
		Where("user_id = ?", userID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// applyGuardedDelta performs the increment only when guardCol holds at
// least need points; the predicate is part of the UPDATE statement, so
// the sufficiency check and the mutation are one atomic step. Returns
// false when the guard rejected the update.
func applyGuardedDelta(tx *gorm.DB, userID uint, d StatsDelta, guardCol string, need int) (bool, error) {
	res := tx.Model(&models.UserStats{}).
		Where("user_id = ? AND "+guardCol+" >= ?", userID, need).
		Updates(deltaColumns(d))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func deltaColumns(d StatsDelta) map[string]interface{} {
	updates := make(map[string]interface{}, 3)
	if d.Score != 0 {
		updates["score"] = gorm.Expr("score + ?", d.Score)
	}
	if d.Balance != 0 {
		updates["balance"] = gorm.Expr("balance + ?", d.Balance)
	}
	if d.Total != 0 {
		updates["total"] = gorm.Expr("total + ?", d.Total)
	}
	return updates
}

func loadStats(tx *gorm.DB, userID uint) (*models.UserStats, error) {
	var stats models.UserStats
	if err := tx.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &stats, nil
}
