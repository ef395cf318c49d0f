package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DeckTypeFlashcards = "Flashcards"
	DeckTypeQuiz       = "Quiz"
)

// ValidDeckType reports whether t is one of the closed deck_type values.
func ValidDeckType(t string) bool {
	return t == DeckTypeFlashcards || t == DeckTypeQuiz
}

type Deck struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Title     string         `json:"title" gorm:"size:128;not null"`
	Type      string         `json:"type" gorm:"size:16;not null"`
	Version   int            `json:"version" gorm:"not null;default:0"`
	UserID    uint           `json:"user_id" gorm:"not null;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	User       User            `json:"user,omitempty"`
	Cards      []Card          `json:"cards,omitempty" gorm:"foreignKey:DeckID"`
	Migrations []DeckMigration `json:"-" gorm:"foreignKey:DeckID"`
}
