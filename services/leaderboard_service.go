package services

import (
	"eco-challenge-system/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

type LeaderboardService struct {
	DB      *gorm.DB
	printer *message.Printer
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{
		DB:      db,
		printer: message.NewPrinter(language.English),
	}
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank            int    `json:"rank"`
	ExternalUserID  string `json:"external_user_id"`
	DisplayName     string `json:"name"`
	School          string `json:"school"`
	EcoPoints       int64  `json:"points"`
	PointsFormatted string `json:"points_formatted"` // e.g., "1,580"
	Level           int    `json:"level"`
}

// SchoolEntry aggregates points per school/organization.
type SchoolEntry struct {
	Rank            int    `json:"rank"`
	School          string `json:"school"`
	TotalPoints     int64  `json:"total_points"`
	PointsFormatted string `json:"points_formatted"`
	StudentCount    int64  `json:"student_count"`
}

// TopStudents returns the highest-scoring profiles with dense ranks.
func (s *LeaderboardService) TopStudents(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var profiles []models.EcoProfile
	if err := s.DB.
		Order("eco_points DESC, created_at ASC").
		Limit(limit).
		Find(&profiles).Error; err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(profiles))
	for i, p := range profiles {
		entries[i] = LeaderboardEntry{
			Rank:            i + 1,
			ExternalUserID:  p.ExternalUserID,
			DisplayName:     p.DisplayName,
			School:          p.School,
			EcoPoints:       p.EcoPoints,
			PointsFormatted: s.printer.Sprintf("%d", p.EcoPoints),
			Level:           p.Level,
		}
	}
	return entries, nil
}

// TopSchools aggregates eco points per school.
func (s *LeaderboardService) TopSchools(limit int) ([]SchoolEntry, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var rows []struct {
		School       string
		TotalPoints  int64
		StudentCount int64
	}
	if err := s.DB.Model(&models.EcoProfile{}).
		Select("school, SUM(eco_points) AS total_points, COUNT(*) AS student_count").
		Where("school <> ''").
		Group("school").
		Order("total_points DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]SchoolEntry, len(rows))
	for i, r := range rows {
		entries[i] = SchoolEntry{
			Rank:            i + 1,
			School:          r.School,
			TotalPoints:     r.TotalPoints,
			PointsFormatted: s.printer.Sprintf("%d", r.TotalPoints),
			StudentCount:    r.StudentCount,
		}
	}
	return entries, nil
}

// UserRank returns the user's current dense rank by points (1-based; 0 when
// the profile does not exist yet).
func (s *LeaderboardService) UserRank(externalUserID string) (int, error) {
	var prof models.EcoProfile
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&prof).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var ahead int64
	if err := s.DB.Model(&models.EcoProfile{}).
		Where("eco_points > ?", prof.EcoPoints).
		Count(&ahead).Error; err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}
