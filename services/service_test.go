package services

import (
	"context"
	"testing"

	"neurocards/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory database. The pool is pinned to a
// single connection so every query sees the same :memory: instance.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Token{},
		&models.Deck{},
		&models.Card{},
		&models.QuestionOption{},
		&models.DeckMigration{},
		&models.DeckMigrationUpdate{},
		&models.UserDeck{},
		&models.UserCardInfo{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// createTestDeck makes a Flashcards deck with two simple cards through the
// deck service, so fixtures go down the same path production writes do.
func createTestDeck(t *testing.T, svc *DeckService, userID uint) *models.Deck {
	t.Helper()

	deck, err := svc.CreateDeck(context.Background(), userID, &CreateDeckRequest{
		Title: "Biology",
		Type:  models.DeckTypeFlashcards,
		Cards: []CreateCardRequest{
			{Question: "What is a cell?", Options: []string{"The basic unit of life"}},
			{Question: "What is DNA?", Options: []string{"Deoxyribonucleic acid"}},
		},
	})
	require.NoError(t, err)
	return deck
}
