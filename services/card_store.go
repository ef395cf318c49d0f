package services

import (
	"fmt"

	"neurocards/models"

	"gorm.io/gorm"
)

// CardStore holds the card-level writes of a deck mutation. Every method
// takes the caller's open transaction: the deck service owns the transaction
// boundary, the store never begins or commits one itself.
type CardStore struct{}

func NewCardStore() *CardStore {
	return &CardStore{}
}

type CreateCardRequest struct {
	Question      string   `json:"question" binding:"required"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Difficulty    int      `json:"difficulty"`
}

type UpdateCardRequest struct {
	ID            uint     `json:"id" binding:"required"`
	Question      string   `json:"question" binding:"required"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Difficulty    int      `json:"difficulty"`
}

// AddCardsToDeck inserts each card with its options and returns the new card
// ids in input order, so the caller can zip them with migration bookkeeping.
func (cs *CardStore) AddCardsToDeck(tx *gorm.DB, deckID uint, deckType string, cards []CreateCardRequest) ([]uint, error) {
	ids := make([]uint, 0, len(cards))
	for _, req := range cards {
		card := models.Card{
			DeckID:     deckID,
			Type:       deckType,
			Question:   req.Question,
			Difficulty: req.Difficulty,
		}
		if err := tx.Create(&card).Error; err != nil {
			return nil, err
		}
		if err := cs.insertOptions(tx, card.ID, req.Options, req.CorrectAnswer); err != nil {
			return nil, err
		}
		ids = append(ids, card.ID)
	}
	return ids, nil
}

// insertOptions writes the option rows and then resolves correct_answer_id
// from the 0-based index. Database ids are not assumed sequential: the id of
// the option inserted at the matching position is captured explicitly.
func (cs *CardStore) insertOptions(tx *gorm.DB, cardID uint, options []string, correctAnswer int) error {
	var correctAnswerID *uint
	for i, answer := range options {
		option := models.QuestionOption{
			CardID: cardID,
			Answer: answer,
		}
		if err := tx.Create(&option).Error; err != nil {
			return err
		}
		if i == correctAnswer {
			id := option.ID
			correctAnswerID = &id
		}
	}
	return tx.Model(&models.Card{}).Where("id = ?", cardID).
		Update("correct_answer_id", correctAnswerID).Error
}

// ReplaceCardOptions swaps a card's entire option set. Options have no
// externally stable identity, so the set is deleted and reinserted, never
// patched row by row.
func (cs *CardStore) ReplaceCardOptions(tx *gorm.DB, cardID uint, options []string, correctAnswer int) error {
	if err := tx.Where("card_id = ?", cardID).Delete(&models.QuestionOption{}).Error; err != nil {
		return err
	}
	return cs.insertOptions(tx, cardID, options, correctAnswer)
}

// UpdateCards overwrites question and difficulty per card, then replaces the
// option set. Card ids are scoped to the deck; an id outside it is a
// not-found, not a silent skip.
func (cs *CardStore) UpdateCards(tx *gorm.DB, deckID uint, cards []UpdateCardRequest) error {
	for _, req := range cards {
		result := tx.Model(&models.Card{}).
			Where("id = ? AND deck_id = ?", req.ID, deckID).
			Updates(map[string]interface{}{
				"question":   req.Question,
				"difficulty": req.Difficulty,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: id %d", ErrCardNotFound, req.ID)
		}
		if err := cs.ReplaceCardOptions(tx, req.ID, req.Options, req.CorrectAnswer); err != nil {
			return err
		}
	}
	return nil
}

// MarkCardsAsDeleted soft-deletes the given cards. Rows stay in place for
// migration history; the deck scope prevents cross-deck id collisions.
func (cs *CardStore) MarkCardsAsDeleted(tx *gorm.DB, cardIDs []uint, deckID uint) error {
	if len(cardIDs) == 0 {
		return nil
	}
	result := tx.Model(&models.Card{}).
		Where("id IN ? AND deck_id = ?", cardIDs, deckID).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(cardIDs)) {
		return fmt.Errorf("%w: %d of %d cards matched deck %d",
			ErrCardNotFound, result.RowsAffected, len(cardIDs), deckID)
	}
	return nil
}

// RecordCardUpdates appends one ledger row per touched card to a migration.
func (cs *CardStore) RecordCardUpdates(tx *gorm.DB, migrationID uint, cardIDs []uint, removed bool) error {
	if len(cardIDs) == 0 {
		return nil
	}
	updates := make([]models.DeckMigrationUpdate, 0, len(cardIDs))
	for _, cardID := range cardIDs {
		updates = append(updates, models.DeckMigrationUpdate{
			DeckMigrationID: migrationID,
			CardID:          cardID,
			CardRemoved:     removed,
		})
	}
	return tx.Create(&updates).Error
}
