// models/user.go
package models

import (
	"time"
)

type User struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Username string  `gorm:"uniqueIndex;not null" json:"username"`
	Email    *string `gorm:"uniqueIndex" json:"email,omitempty"`
	Password string  `gorm:"not null" json:"-"`
	IsGuest  bool    `gorm:"default:false" json:"is_guest"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LastLogin time.Time `json:"last_login"`

	// Relationships
	Stats  *UserStats  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"stats,omitempty"`
	Rounds []GameRound `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"rounds,omitempty"`
}
