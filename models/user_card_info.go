package models

import (
	"time"
)

// UserCardInfo is per-(user, card) spaced-repetition state. The scheduling
// fields are computed client-side and stored as-is; the backend only
// overwrites them wholesale on every answer submission.
type UserCardInfo struct {
	UserID           uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	CardID           uint      `json:"card_id" gorm:"primaryKey;autoIncrement:false"`
	LastAnsweredAt   time.Time `json:"last_answered_at" gorm:"not null"`
	RepetitionNumber int       `json:"repetition_number" gorm:"not null"`
	EasinessFactor   float64   `json:"easiness_factor" gorm:"not null"`
	Interval         float64   `json:"interval" gorm:"not null"`
	IsLearning       bool      `json:"is_learning" gorm:"not null;default:true"`
	LearningStep     int       `json:"learning_step" gorm:"not null;default:0"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relationships
	User User `json:"-"`
	Card Card `json:"-"`
}

// TableName keeps the historical singular table name.
func (UserCardInfo) TableName() string {
	return "user_card_info"
}
