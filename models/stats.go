// models/stats.go
package models

import (
	"time"
)

// UserStats is the per-user points ledger. Score comes from quiz answers
// and may go negative; balance and total never drop below zero because
// every subtraction is guarded by a sufficiency check.
type UserStats struct {
	ID     uint `gorm:"primaryKey" json:"-"`
	UserID uint `gorm:"uniqueIndex;not null" json:"-"`

	Score   int `gorm:"not null;default:0" json:"score"`
	Balance int `gorm:"not null;default:0" json:"balance"`
	Total   int `gorm:"not null;default:0" json:"total"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (UserStats) TableName() string { return "user_stats" }

// Slot round outcomes.
const (
	OutcomeWin  = "win"
	OutcomeLose = "lose"
	OutcomeNone = "none"
)

// GameRound is the append-only audit record of one slot machine spin.
type GameRound struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"index;not null" json:"user_id"`
	Bet     int    `gorm:"not null" json:"bet"`
	Prize   int    `gorm:"not null" json:"prize"`
	Delta   int    `gorm:"not null" json:"delta"`
	Outcome string `gorm:"not null" json:"outcome"`
	Reel1   string `gorm:"not null" json:"reel1"`
	Reel2   string `gorm:"not null" json:"reel2"`
	Reel3   string `gorm:"not null" json:"reel3"`

	CreatedAt time.Time `json:"created_at"`
}

// ScoreSnapshot is a durable key-value row holding a JSON snapshot,
// used to persist the global leaderboard aggregates across restarts.
type ScoreSnapshot struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"uniqueIndex;not null"`
	Data      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}
