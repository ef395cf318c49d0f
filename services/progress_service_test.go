package services

import (
	"context"
	"testing"
	"time"

	"neurocards/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProgressFixture(t *testing.T) (*DeckService, *ProgressService, *models.User, *models.Deck) {
	t.Helper()

	db := setupTestDB(t)
	user := createTestUser(t, db, "frank")
	deckSvc := NewDeckService(db, NewCardStore(), nil)
	deck := createTestDeck(t, deckSvc, user.ID)
	return deckSvc, NewProgressService(db), user, deck
}

func TestUpdateCardInfoCreatesAndOverwrites(t *testing.T) {
	_, svc, user, deck := newProgressFixture(t)
	ctx := context.Background()
	cardID := deck.Cards[0].ID
	answeredAt := time.Now().UTC().Truncate(time.Second)

	err := svc.UpdateCardInfo(ctx, user.ID, deck.ID, []CardInfoRequest{
		{
			CardID:           cardID,
			LastAnsweredAt:   answeredAt,
			RepetitionNumber: 1,
			EasinessFactor:   2.5,
			Interval:         1,
			IsLearning:       true,
			LearningStep:     1,
		},
	})
	require.NoError(t, err)

	var info models.UserCardInfo
	require.NoError(t, svc.db.Where("user_id = ? AND card_id = ?", user.ID, cardID).First(&info).Error)
	assert.Equal(t, 1, info.RepetitionNumber)
	assert.InDelta(t, 2.5, info.EasinessFactor, 1e-9)
	assert.True(t, info.IsLearning)

	// a second submission overwrites every scheduling field, no merge
	err = svc.UpdateCardInfo(ctx, user.ID, deck.ID, []CardInfoRequest{
		{
			CardID:           cardID,
			LastAnsweredAt:   answeredAt.Add(time.Hour),
			RepetitionNumber: 2,
			EasinessFactor:   2.6,
			Interval:         6,
			IsLearning:       false,
			LearningStep:     0,
		},
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, svc.db.Model(&models.UserCardInfo{}).
		Where("user_id = ? AND card_id = ?", user.ID, cardID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	require.NoError(t, svc.db.Where("user_id = ? AND card_id = ?", user.ID, cardID).First(&info).Error)
	assert.Equal(t, 2, info.RepetitionNumber)
	assert.InDelta(t, 2.6, info.EasinessFactor, 1e-9)
	assert.InDelta(t, 6, info.Interval, 1e-9)
	assert.False(t, info.IsLearning)
	assert.Equal(t, 0, info.LearningStep)
}

func TestUpdateCardInfoTouchesMembershipOnce(t *testing.T) {
	_, svc, user, deck := newProgressFixture(t)
	ctx := context.Background()

	var before models.UserDeck
	require.NoError(t, svc.db.Where("user_id = ? AND deck_id = ?", user.ID, deck.ID).First(&before).Error)

	time.Sleep(10 * time.Millisecond)
	answeredAt := time.Now().UTC()
	err := svc.UpdateCardInfo(ctx, user.ID, deck.ID, []CardInfoRequest{
		{CardID: deck.Cards[0].ID, LastAnsweredAt: answeredAt, RepetitionNumber: 1, EasinessFactor: 2.5, Interval: 1},
		{CardID: deck.Cards[1].ID, LastAnsweredAt: answeredAt, RepetitionNumber: 1, EasinessFactor: 2.5, Interval: 1},
	})
	require.NoError(t, err)

	var after models.UserDeck
	require.NoError(t, svc.db.Where("user_id = ? AND deck_id = ?", user.ID, deck.ID).First(&after).Error)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt),
		"user_decks.updated_at advances when progress changes")

	var rows int64
	require.NoError(t, svc.db.Model(&models.UserDeck{}).
		Where("user_id = ? AND deck_id = ?", user.ID, deck.ID).Count(&rows).Error)
	assert.EqualValues(t, 1, rows, "batch size must not multiply membership rows")
}

func TestUpdateCardInfoRequiresMembership(t *testing.T) {
	_, svc, _, deck := newProgressFixture(t)
	stranger := createTestUser(t, svc.db, "grace")

	err := svc.UpdateCardInfo(context.Background(), stranger.ID, deck.ID, []CardInfoRequest{
		{CardID: deck.Cards[0].ID, LastAnsweredAt: time.Now().UTC()},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	var count int64
	require.NoError(t, svc.db.Model(&models.UserCardInfo{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateCardInfoEmptyBatchStillTouchesMembership(t *testing.T) {
	_, svc, user, deck := newProgressFixture(t)

	var before models.UserDeck
	require.NoError(t, svc.db.Where("user_id = ? AND deck_id = ?", user.ID, deck.ID).First(&before).Error)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, svc.UpdateCardInfo(context.Background(), user.ID, deck.ID, nil))

	var after models.UserDeck
	require.NoError(t, svc.db.Where("user_id = ? AND deck_id = ?", user.ID, deck.ID).First(&after).Error)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestGetCardInfoSince(t *testing.T) {
	_, svc, user, deck := newProgressFixture(t)
	ctx := context.Background()
	answeredAt := time.Now().UTC()

	err := svc.UpdateCardInfo(ctx, user.ID, deck.ID, []CardInfoRequest{
		{CardID: deck.Cards[0].ID, LastAnsweredAt: answeredAt, RepetitionNumber: 1, EasinessFactor: 2.5, Interval: 1},
		{CardID: deck.Cards[1].ID, LastAnsweredAt: answeredAt, RepetitionNumber: 3, EasinessFactor: 2.2, Interval: 12},
	})
	require.NoError(t, err)

	infos, err := svc.GetCardInfoSince(ctx, user.ID, deck.ID, answeredAt.Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	// a cutoff in the future excludes everything
	infos, err = svc.GetCardInfoSince(ctx, user.ID, deck.ID, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, infos)

	// another user sees none of it
	stranger := createTestUser(t, svc.db, "heidi")
	infos, err = svc.GetCardInfoSince(ctx, stranger.ID, deck.ID, answeredAt.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, infos)
}
