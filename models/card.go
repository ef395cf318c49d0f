package models

import (
	"time"
)

// Card is never hard-deleted while a migration references it; deletion is
// the IsDeleted flag so historical sync queries stay valid.
type Card struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	DeckID          uint      `json:"deck_id" gorm:"not null;index"`
	Type            string    `json:"type" gorm:"size:16;not null"`
	Question        string    `json:"question" gorm:"not null"`
	Difficulty      int       `json:"difficulty" gorm:"not null;default:0"`
	CorrectAnswerID *uint     `json:"correct_answer_id"`
	IsDeleted       bool      `json:"is_deleted" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at"`

	// Relationships
	Deck    Deck             `json:"-"`
	Options []QuestionOption `json:"options,omitempty" gorm:"foreignKey:CardID;constraint:OnDelete:CASCADE"`
}
