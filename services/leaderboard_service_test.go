package services

import (
	"testing"

	"eco-challenge-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopStudentsRanksByPoints(t *testing.T) {
	db := newTestDB(t)
	lb := NewLeaderboardService(db)

	for _, p := range []models.EcoProfile{
		{ID: uuid.NewString(), ExternalUserID: "u1", DisplayName: "Arjun Patel", School: "Kendriya Vidyalaya", EcoPoints: 1580, Level: 7},
		{ID: uuid.NewString(), ExternalUserID: "u2", DisplayName: "Sneha Gupta", School: "DPS Vadodara", EcoPoints: 1420, Level: 6},
		{ID: uuid.NewString(), ExternalUserID: "u3", DisplayName: "Priya Sharma", School: "DPS Bharuch", EcoPoints: 1250, Level: 6},
	} {
		require.NoError(t, db.Create(&p).Error)
	}

	entries, err := lb.TopStudents(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "Arjun Patel", entries[0].DisplayName)
	assert.Equal(t, "1,580", entries[0].PointsFormatted)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 3, entries[2].Rank)
	assert.Equal(t, "Priya Sharma", entries[2].DisplayName)
}

func TestTopSchoolsAggregates(t *testing.T) {
	db := newTestDB(t)
	lb := NewLeaderboardService(db)

	for _, p := range []models.EcoProfile{
		{ID: uuid.NewString(), ExternalUserID: "u1", School: "DPS Vadodara", EcoPoints: 1000},
		{ID: uuid.NewString(), ExternalUserID: "u2", School: "DPS Vadodara", EcoPoints: 2000},
		{ID: uuid.NewString(), ExternalUserID: "u3", School: "Kendriya Vidyalaya", EcoPoints: 2500},
		{ID: uuid.NewString(), ExternalUserID: "u4", School: "", EcoPoints: 9999}, // no school, excluded
	} {
		require.NoError(t, db.Create(&p).Error)
	}

	entries, err := lb.TopSchools(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "DPS Vadodara", entries[0].School)
	assert.EqualValues(t, 3000, entries[0].TotalPoints)
	assert.Equal(t, "3,000", entries[0].PointsFormatted)
	assert.EqualValues(t, 2, entries[0].StudentCount)
	assert.Equal(t, "Kendriya Vidyalaya", entries[1].School)
}

func TestUserRank(t *testing.T) {
	db := newTestDB(t)
	lb := NewLeaderboardService(db)

	for _, p := range []models.EcoProfile{
		{ID: uuid.NewString(), ExternalUserID: "u1", EcoPoints: 500},
		{ID: uuid.NewString(), ExternalUserID: "u2", EcoPoints: 300},
		{ID: uuid.NewString(), ExternalUserID: "u3", EcoPoints: 100},
	} {
		require.NoError(t, db.Create(&p).Error)
	}

	rank, err := lb.UserRank("u2")
	require.NoError(t, err)
	assert.Equal(t, 2, rank)

	rank, err = lb.UserRank("unknown")
	require.NoError(t, err)
	assert.Zero(t, rank)
}
