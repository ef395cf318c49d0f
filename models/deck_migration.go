package models

import (
	"time"
)

// DeckMigration records that a deck advanced to Version. The unique
// (deck_id, version) index is the linearization point for concurrent deck
// updates: the second updater racing for the same version fails here.
type DeckMigration struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	DeckID    uint      `json:"deck_id" gorm:"not null;uniqueIndex:idx_deck_migrations_deck_version"`
	Version   int       `json:"version" gorm:"not null;uniqueIndex:idx_deck_migrations_deck_version"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Deck    Deck                  `json:"-"`
	Updates []DeckMigrationUpdate `json:"updates,omitempty" gorm:"foreignKey:DeckMigrationID"`
}

// DeckMigrationUpdate marks a single card as touched (added, edited or
// removed) by a migration.
type DeckMigrationUpdate struct {
	DeckMigrationID uint `json:"deck_migration_id" gorm:"primaryKey;autoIncrement:false"`
	CardID          uint `json:"card_id" gorm:"primaryKey;autoIncrement:false"`
	CardRemoved     bool `json:"card_removed" gorm:"not null;default:false"`
}
