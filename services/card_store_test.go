package services

import (
	"testing"

	"neurocards/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCardStoreFixture(t *testing.T) (*gorm.DB, *CardStore, *models.Deck) {
	t.Helper()

	db := setupTestDB(t)
	user := createTestUser(t, db, "dave")
	deck := models.Deck{Title: "Physics", Type: models.DeckTypeQuiz, UserID: user.ID}
	require.NoError(t, db.Create(&deck).Error)
	return db, NewCardStore(), &deck
}

func TestAddCardsToDeckReturnsIDsInInputOrder(t *testing.T) {
	db, store, deck := newCardStoreFixture(t)

	ids, err := store.AddCardsToDeck(db, deck.ID, deck.Type, []CreateCardRequest{
		{Question: "First", Options: []string{"a", "b"}, CorrectAnswer: 0},
		{Question: "Second", Options: []string{"c", "d"}, CorrectAnswer: 1},
		{Question: "Third", Options: []string{"e"}},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	questions := []string{"First", "Second", "Third"}
	for i, id := range ids {
		var card models.Card
		require.NoError(t, db.Preload("Options").First(&card, id).Error)
		assert.Equal(t, questions[i], card.Question)
		assert.Equal(t, deck.Type, card.Type)
		require.NotNil(t, card.CorrectAnswerID)
	}

	// the second card's correct answer points at its index-1 option
	var second models.Card
	require.NoError(t, db.Preload("Options").First(&second, ids[1]).Error)
	assert.Equal(t, second.Options[1].ID, *second.CorrectAnswerID)
	assert.Equal(t, "d", second.Options[1].Answer)
}

func TestReplaceCardOptionsDropsOldRows(t *testing.T) {
	db, store, deck := newCardStoreFixture(t)

	ids, err := store.AddCardsToDeck(db, deck.ID, deck.Type, []CreateCardRequest{
		{Question: "Q", Options: []string{"old1", "old2"}, CorrectAnswer: 0},
	})
	require.NoError(t, err)
	cardID := ids[0]

	var oldOptions []models.QuestionOption
	require.NoError(t, db.Where("card_id = ?", cardID).Find(&oldOptions).Error)
	require.Len(t, oldOptions, 2)

	require.NoError(t, store.ReplaceCardOptions(db, cardID, []string{"new1", "new2", "new3"}, 2))

	var options []models.QuestionOption
	require.NoError(t, db.Where("card_id = ?", cardID).Order("id").Find(&options).Error)
	require.Len(t, options, 3)
	for _, option := range options {
		assert.NotContains(t, []uint{oldOptions[0].ID, oldOptions[1].ID}, option.ID)
	}

	var card models.Card
	require.NoError(t, db.First(&card, cardID).Error)
	require.NotNil(t, card.CorrectAnswerID)
	assert.Equal(t, options[2].ID, *card.CorrectAnswerID)
}

func TestUpdateCardsOverwritesFields(t *testing.T) {
	db, store, deck := newCardStoreFixture(t)

	ids, err := store.AddCardsToDeck(db, deck.ID, deck.Type, []CreateCardRequest{
		{Question: "Old question", Options: []string{"x"}, Difficulty: 1},
	})
	require.NoError(t, err)

	err = store.UpdateCards(db, deck.ID, []UpdateCardRequest{
		{ID: ids[0], Question: "New question", Options: []string{"y", "z"}, CorrectAnswer: 1, Difficulty: 3},
	})
	require.NoError(t, err)

	var card models.Card
	require.NoError(t, db.Preload("Options").First(&card, ids[0]).Error)
	assert.Equal(t, "New question", card.Question)
	assert.Equal(t, 3, card.Difficulty)
	require.Len(t, card.Options, 2)
	assert.Equal(t, card.Options[1].ID, *card.CorrectAnswerID)
}

func TestMarkCardsAsDeletedScopedToDeck(t *testing.T) {
	db, store, deck := newCardStoreFixture(t)
	other := models.Deck{Title: "Other", Type: models.DeckTypeQuiz, UserID: deck.UserID}
	require.NoError(t, db.Create(&other).Error)

	ownIDs, err := store.AddCardsToDeck(db, deck.ID, deck.Type, []CreateCardRequest{
		{Question: "Mine", Options: []string{"a"}},
	})
	require.NoError(t, err)
	foreignIDs, err := store.AddCardsToDeck(db, other.ID, other.Type, []CreateCardRequest{
		{Question: "Theirs", Options: []string{"b"}},
	})
	require.NoError(t, err)

	// a foreign id in the batch fails the whole call
	err = store.MarkCardsAsDeleted(db, []uint{ownIDs[0], foreignIDs[0]}, deck.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.MarkCardsAsDeleted(db, ownIDs, deck.ID))

	var card models.Card
	require.NoError(t, db.First(&card, ownIDs[0]).Error)
	assert.True(t, card.IsDeleted)

	var foreign models.Card
	require.NoError(t, db.First(&foreign, foreignIDs[0]).Error)
	assert.False(t, foreign.IsDeleted)
}

func TestRecordCardUpdatesFlagsRemovals(t *testing.T) {
	db, store, deck := newCardStoreFixture(t)

	ids, err := store.AddCardsToDeck(db, deck.ID, deck.Type, []CreateCardRequest{
		{Question: "A", Options: []string{"a"}},
		{Question: "B", Options: []string{"b"}},
	})
	require.NoError(t, err)

	migration := models.DeckMigration{DeckID: deck.ID, Version: 1}
	require.NoError(t, db.Create(&migration).Error)

	require.NoError(t, store.RecordCardUpdates(db, migration.ID, ids[:1], false))
	require.NoError(t, store.RecordCardUpdates(db, migration.ID, ids[1:], true))
	require.NoError(t, store.RecordCardUpdates(db, migration.ID, nil, false))

	var updates []models.DeckMigrationUpdate
	require.NoError(t, db.Where("deck_migration_id = ?", migration.ID).Order("card_id").Find(&updates).Error)
	require.Len(t, updates, 2)
	assert.False(t, updates[0].CardRemoved)
	assert.True(t, updates[1].CardRemoved)
}
