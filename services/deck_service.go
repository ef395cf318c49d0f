package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"neurocards/config"
	"neurocards/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeckUpdatesChannel carries {deck_id, version} events after a committed
// version bump. The hub fans them out to websocket clients.
const DeckUpdatesChannel = "deck_updates"

type DeckService struct {
	db    *gorm.DB
	cards *CardStore
	redis *redis.Client
}

func NewDeckService(db *gorm.DB, cards *CardStore, redisClient *redis.Client) *DeckService {
	return &DeckService{
		db:    db,
		cards: cards,
		redis: redisClient,
	}
}

type CreateDeckRequest struct {
	Title string              `json:"title" binding:"required"`
	Type  string              `json:"type" binding:"required"`
	Cards []CreateCardRequest `json:"cards"`
}

type UpdateDeckRequest struct {
	Title          string              `json:"title" binding:"required"`
	NewCards       []CreateCardRequest `json:"new_cards"`
	EditedCards    []UpdateCardRequest `json:"edited_cards"`
	DeletedCardIDs []uint              `json:"deleted_card_ids"`
}

type DeckUpdateEvent struct {
	DeckID  uint `json:"deck_id"`
	Version int  `json:"version"`
}

func validateCorrectAnswer(options []string, correctAnswer int) error {
	if len(options) == 0 {
		return nil
	}
	if correctAnswer < 0 || correctAnswer >= len(options) {
		return fmt.Errorf("%w: correct answer index %d out of range for %d options",
			ErrValidation, correctAnswer, len(options))
	}
	return nil
}

// validateUpdateRequest rejects requests where a card id appears in more
// than one of the edited/deleted sets; applying both is undefined.
func validateUpdateRequest(req *UpdateDeckRequest) error {
	for _, card := range req.NewCards {
		if err := validateCorrectAnswer(card.Options, card.CorrectAnswer); err != nil {
			return err
		}
	}
	edited := make(map[uint]bool, len(req.EditedCards))
	for _, card := range req.EditedCards {
		if err := validateCorrectAnswer(card.Options, card.CorrectAnswer); err != nil {
			return err
		}
		if edited[card.ID] {
			return fmt.Errorf("%w: card %d edited twice", ErrValidation, card.ID)
		}
		edited[card.ID] = true
	}
	deleted := make(map[uint]bool, len(req.DeletedCardIDs))
	for _, id := range req.DeletedCardIDs {
		if edited[id] {
			return fmt.Errorf("%w: card %d both edited and deleted", ErrValidation, id)
		}
		if deleted[id] {
			return fmt.Errorf("%w: card %d deleted twice", ErrValidation, id)
		}
		deleted[id] = true
	}
	return nil
}

// CreateDeck inserts the deck at version 0, the creator's membership row and
// the initial cards in a single transaction.
func (s *DeckService) CreateDeck(ctx context.Context, userID uint, req *CreateDeckRequest) (*models.Deck, error) {
	if !models.ValidDeckType(req.Type) {
		return nil, fmt.Errorf("%w: unknown deck type %q", ErrValidation, req.Type)
	}
	for _, card := range req.Cards {
		if err := validateCorrectAnswer(card.Options, card.CorrectAnswer); err != nil {
			return nil, err
		}
	}

	deck := models.Deck{
		Title:  req.Title,
		Type:   req.Type,
		UserID: userID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&deck).Error; err != nil {
			return err
		}
		membership := models.UserDeck{
			UserID: userID,
			DeckID: deck.ID,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		_, err := s.cards.AddCardsToDeck(tx, deck.ID, deck.Type, req.Cards)
		return err
	})
	if err != nil {
		return nil, err
	}

	config.Log.Info("deck created",
		zap.Uint("deck_id", deck.ID),
		zap.Uint("user_id", userID),
		zap.Int("cards", len(req.Cards)))

	return s.GetDeckByID(ctx, deck.ID, userID)
}

// UpdateDeck applies a versioned deck mutation. A title-only request leaves
// the version alone and writes no migration; any card change bumps the
// version by one and records exactly one migration with one ledger row per
// touched card.
func (s *DeckService) UpdateDeck(ctx context.Context, deckID, userID uint, req *UpdateDeckRequest) error {
	if err := validateUpdateRequest(req); err != nil {
		return err
	}

	if len(req.NewCards) == 0 && len(req.EditedCards) == 0 && len(req.DeletedCardIDs) == 0 {
		result := s.db.WithContext(ctx).Model(&models.Deck{}).
			Where("id = ? AND user_id = ?", deckID, userID).
			Update("title", req.Title)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrDeckNotFound
		}
		return nil
	}

	var newVersion int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The deck row is read, not locked: the unique (deck_id, version)
		// index below decides the winner between concurrent updates.
		var deck models.Deck
		if err := tx.Where("id = ? AND user_id = ?", deckID, userID).First(&deck).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDeckNotFound
			}
			return err
		}

		newVersion = deck.Version + 1
		if err := tx.Model(&deck).Updates(map[string]interface{}{
			"title":   req.Title,
			"version": newVersion,
		}).Error; err != nil {
			return err
		}

		migration := models.DeckMigration{
			DeckID:  deck.ID,
			Version: newVersion,
		}
		if err := tx.Create(&migration).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrVersionConflict
			}
			return err
		}

		newCardIDs, err := s.cards.AddCardsToDeck(tx, deck.ID, deck.Type, req.NewCards)
		if err != nil {
			return err
		}
		if err := s.cards.MarkCardsAsDeleted(tx, req.DeletedCardIDs, deck.ID); err != nil {
			return err
		}
		if err := s.cards.UpdateCards(tx, deck.ID, req.EditedCards); err != nil {
			return err
		}

		touched := make([]uint, 0, len(newCardIDs)+len(req.EditedCards))
		touched = append(touched, newCardIDs...)
		for _, card := range req.EditedCards {
			touched = append(touched, card.ID)
		}
		if err := s.cards.RecordCardUpdates(tx, migration.ID, touched, false); err != nil {
			return err
		}
		return s.cards.RecordCardUpdates(tx, migration.ID, req.DeletedCardIDs, true)
	})
	if err != nil {
		return err
	}

	config.Log.Info("deck updated",
		zap.Uint("deck_id", deckID),
		zap.Int("version", newVersion),
		zap.Int("new", len(req.NewCards)),
		zap.Int("edited", len(req.EditedCards)),
		zap.Int("deleted", len(req.DeletedCardIDs)))

	s.publishDeckUpdate(ctx, deckID, newVersion)
	return nil
}

// publishDeckUpdate notifies watchers after the transaction committed.
// Best effort: a dropped notification only delays the next sync.
func (s *DeckService) publishDeckUpdate(ctx context.Context, deckID uint, version int) {
	if s.redis == nil {
		return
	}
	event := DeckUpdateEvent{DeckID: deckID, Version: version}
	data, err := json.Marshal(event)
	if err != nil {
		config.Log.Error("failed to marshal deck update event", zap.Error(err))
		return
	}
	if err := s.redis.Publish(ctx, DeckUpdatesChannel, data).Err(); err != nil {
		config.Log.Warn("failed to publish deck update",
			zap.Uint("deck_id", deckID), zap.Error(err))
	}
}

// GetDeckByID returns a deck visible to the user through a user_decks
// membership, with cards and options loaded.
func (s *DeckService) GetDeckByID(ctx context.Context, deckID, userID uint) (*models.Deck, error) {
	var deck models.Deck
	err := s.db.WithContext(ctx).
		Select("decks.*").
		Joins("JOIN user_decks ON user_decks.deck_id = decks.id").
		Where("decks.id = ? AND user_decks.user_id = ?", deckID, userID).
		Preload("Cards", func(db *gorm.DB) *gorm.DB {
			return db.Order("cards.id")
		}).
		Preload("Cards.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.id")
		}).
		First(&deck).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeckNotFound
		}
		return nil, err
	}
	return &deck, nil
}

// GetCreatedDecks lists the decks the user owns.
func (s *DeckService) GetCreatedDecks(ctx context.Context, userID uint) ([]models.Deck, error) {
	var decks []models.Deck
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&decks).Error
	return decks, err
}

// GetUserDecks lists every deck the user can see via user_decks.
func (s *DeckService) GetUserDecks(ctx context.Context, userID uint) ([]models.Deck, error) {
	var decks []models.Deck
	err := s.db.WithContext(ctx).
		Select("decks.*").
		Joins("JOIN user_decks ON user_decks.deck_id = decks.id").
		Where("user_decks.user_id = ?", userID).
		Order("user_decks.created_at DESC").
		Find(&decks).Error
	return decks, err
}
