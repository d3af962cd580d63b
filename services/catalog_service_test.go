package services

import (
	"testing"

	"eco-challenge-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedChallengesIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)

	require.NoError(t, catalog.SeedChallenges())
	require.NoError(t, catalog.SeedChallenges())

	var count int64
	require.NoError(t, db.Model(&models.Challenge{}).Count(&count).Error)
	assert.EqualValues(t, 5, count)

	ch, err := catalog.GetBySlug("plant-a-tree-challenge")
	require.NoError(t, err)
	assert.Equal(t, "Plant a Tree Challenge", ch.Title)
	assert.EqualValues(t, 200, ch.PointValue)
	assert.Equal(t, models.DifficultyMedium, ch.Difficulty)
}

func TestListForUserJoinsCompletionFlags(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)
	require.NoError(t, catalog.SeedChallenges())

	ch, err := catalog.GetBySlug("plastic-free-week")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.ChallengeCompletion{
		ID:             uuid.NewString(),
		ExternalUserID: "user-1",
		ChallengeID:    ch.ID,
		PointsAwarded:  ch.PointValue,
	}).Error)

	views, err := catalog.ListForUser("user-1")
	require.NoError(t, err)
	require.Len(t, views, 5)

	completed := 0
	for _, v := range views {
		if v.Completed {
			completed++
			assert.Equal(t, ch.ID, v.ID)
		}
	}
	assert.Equal(t, 1, completed)

	// Another user sees a clean catalog.
	views, err = catalog.ListForUser("user-2")
	require.NoError(t, err)
	for _, v := range views {
		assert.False(t, v.Completed)
	}
}

func TestGetBySlugUnknown(t *testing.T) {
	db := newTestDB(t)
	catalog := NewCatalogService(db)

	_, err := catalog.GetBySlug("no-such-challenge")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}
