package services

import (
	"context"
	"errors"
	"time"

	"neurocards/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressService persists per-(user, card) spaced-repetition state. The
// scheduling fields are opaque here: the client runs the algorithm, this
// side only stores the result. Progress writes never touch the deck version.
type ProgressService struct {
	db *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{db: db}
}

type CardInfoRequest struct {
	CardID           uint      `json:"card_id" binding:"required"`
	LastAnsweredAt   time.Time `json:"last_answered_at" binding:"required"`
	RepetitionNumber int       `json:"repetition_number"`
	EasinessFactor   float64   `json:"easiness_factor"`
	Interval         float64   `json:"interval"`
	IsLearning       bool      `json:"is_learning"`
	LearningStep     int       `json:"learning_step"`
}

// UpdateCardInfo upserts the progress rows for a batch of answered cards and
// advances user_decks.updated_at once per call, regardless of batch size.
// Each upsert overwrites the scheduling fields wholesale; there is no
// field-level merge.
func (s *ProgressService) UpdateCardInfo(ctx context.Context, userID, deckID uint, cards []CardInfoRequest) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var membership models.UserDeck
		err := tx.Where("user_id = ? AND deck_id = ?", userID, deckID).First(&membership).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDeckNotFound
			}
			return err
		}

		if len(cards) > 0 {
			infos := make([]models.UserCardInfo, 0, len(cards))
			for _, card := range cards {
				infos = append(infos, models.UserCardInfo{
					UserID:           userID,
					CardID:           card.CardID,
					LastAnsweredAt:   card.LastAnsweredAt,
					RepetitionNumber: card.RepetitionNumber,
					EasinessFactor:   card.EasinessFactor,
					Interval:         card.Interval,
					IsLearning:       card.IsLearning,
					LearningStep:     card.LearningStep,
				})
			}
			err = tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "card_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"last_answered_at",
					"repetition_number",
					"easiness_factor",
					"interval",
					"is_learning",
					"learning_step",
					"updated_at",
				}),
			}).Create(&infos).Error
			if err != nil {
				return err
			}
		}

		return tx.Model(&models.UserDeck{}).
			Where("user_id = ? AND deck_id = ?", userID, deckID).
			Update("updated_at", time.Now().UTC()).Error
	})
}

// GetCardInfoSince returns the user's progress rows for cards in the deck
// whose progress was created or updated at or after the given time. Cards
// the user never answered have no row and are not returned.
func (s *ProgressService) GetCardInfoSince(ctx context.Context, userID, deckID uint, after time.Time) ([]models.UserCardInfo, error) {
	var infos []models.UserCardInfo
	err := s.db.WithContext(ctx).
		Select("user_card_info.*").
		Joins("JOIN cards ON cards.id = user_card_info.card_id").
		Where("user_card_info.user_id = ? AND cards.deck_id = ? AND user_card_info.updated_at >= ?",
			userID, deckID, after).
		Order("user_card_info.card_id").
		Find(&infos).Error
	return infos, err
}
