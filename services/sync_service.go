package services

import (
	"context"

	"neurocards/models"

	"gorm.io/gorm"
)

// SyncService answers "which cards changed since version V". Clients keep
// the last deck version they saw; a sync call fetches only the touched
// cards instead of the whole deck.
type SyncService struct {
	db *gorm.DB
}

func NewSyncService(db *gorm.DB) *SyncService {
	return &SyncService{db: db}
}

// GetCards lists the deck's cards with options. Deleted cards are included
// on purpose: deletion is signalled through the migration ledger, and
// clients reconcile against it. page is 1-indexed; nil disables pagination.
func (s *SyncService) GetCards(ctx context.Context, deckID uint, page *int) ([]models.Card, error) {
	query := s.db.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.id")
		}).
		Order("cards.id")
	if page != nil {
		query = query.Limit(ItemsPerPage).Offset(pageOffset(*page))
	}

	var cards []models.Card
	err := query.Find(&cards).Error
	return cards, err
}

// GetCardsFromVersion returns the distinct cards touched by any migration
// newer than fromVersion, each in its current state (last write wins). A
// card edited in several migrations appears once.
func (s *SyncService) GetCardsFromVersion(ctx context.Context, deckID uint, fromVersion int, page *int) ([]models.Card, error) {
	query := s.db.WithContext(ctx).Model(&models.Card{}).
		Distinct("cards.*").
		Joins("JOIN deck_migration_updates ON deck_migration_updates.card_id = cards.id").
		Joins("JOIN deck_migrations ON deck_migrations.id = deck_migration_updates.deck_migration_id").
		Where("deck_migrations.deck_id = ? AND deck_migrations.version > ?", deckID, fromVersion).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.id")
		}).
		Order("cards.id")
	if page != nil {
		query = query.Limit(ItemsPerPage).Offset(pageOffset(*page))
	}

	var cards []models.Card
	err := query.Find(&cards).Error
	return cards, err
}

func (s *SyncService) GetTotalCards(ctx context.Context, deckID uint) (PaginationMeta, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Card{}).
		Where("deck_id = ?", deckID).
		Count(&total).Error
	return NewPaginationMeta(total), err
}

func (s *SyncService) GetTotalCardsFromVersion(ctx context.Context, deckID uint, fromVersion int) (PaginationMeta, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Card{}).
		Joins("JOIN deck_migration_updates ON deck_migration_updates.card_id = cards.id").
		Joins("JOIN deck_migrations ON deck_migrations.id = deck_migration_updates.deck_migration_id").
		Where("deck_migrations.deck_id = ? AND deck_migrations.version > ?", deckID, fromVersion).
		Distinct("cards.id").
		Count(&total).Error
	return NewPaginationMeta(total), err
}
