package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Username  string         `json:"username" gorm:"size:64;uniqueIndex;not null"`
	Email     string         `json:"email" gorm:"size:64;uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Decks  []Deck  `json:"decks,omitempty" gorm:"foreignKey:UserID"`
	Tokens []Token `json:"-" gorm:"foreignKey:UserID"`
}
