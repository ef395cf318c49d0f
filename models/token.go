package models

import (
	"time"
)

// Token is a persisted refresh token. Access tokens are never stored;
// a refresh token row is invalidated on rotation, logout or token reuse.
type Token struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Token     string    `json:"-" gorm:"not null"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	IsInvalid bool      `json:"is_invalid" gorm:"not null;default:false"`

	// Relationships
	User User `json:"-"`
}
