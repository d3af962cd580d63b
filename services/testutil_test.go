package services

import (
	"fmt"
	"testing"

	"eco-challenge-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique shared-cache DSN so every connection in the pool sees the same DB.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Challenge{},
		&models.ChallengeCompletion{},
		&models.EvidenceSubmission{},
		&models.EcoProfile{},
		&models.BadgeType{},
		&models.UserBadge{},
		&models.ChatExchange{},
		&models.LearningModule{},
		&models.LessonProgress{},
	))
	return db
}

func seedChallenge(t *testing.T, db *gorm.DB, title string, points int64) *models.Challenge {
	t.Helper()
	ch := &models.Challenge{
		ID:         uuid.NewString(),
		Slug:       uuid.NewString(),
		Title:      title,
		PointValue: points,
		Difficulty: models.DifficultyMedium,
		Category:   "Biodiversity",
	}
	require.NoError(t, db.Create(ch).Error)
	return ch
}

func stubEvidenceStore(string, []byte) (string, error) {
	return "https://cdn.example.org/evidence/test.jpg", nil
}
