package models

import (
	"time"
)

// UserDeck grants a user visibility of a deck. UpdatedAt advances whenever
// the user's progress on that deck changes, not when the deck itself does.
type UserDeck struct {
	UserID    uint      `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	DeckID    uint      `json:"deck_id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User User `json:"-"`
	Deck Deck `json:"-"`
}
