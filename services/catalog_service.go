package services

import (
	"eco-challenge-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// CatalogService serves the challenge catalog. Rows are immutable once seeded;
// per-user completion flags are joined in at read time so the catalog never
// carries authoritative state.
type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

// ChallengeView is a catalog row annotated for one user.
type ChallengeView struct {
	models.Challenge
	Completed bool `json:"completed"`
}

var seedChallenges = []models.Challenge{
	{
		Title:       "Plant a Tree Challenge",
		Description: "Plant a sapling and track its growth for 30 days",
		PointValue:  200,
		Category:    "Biodiversity",
		Difficulty:  models.DifficultyMedium,
		Location:    "Local",
	},
	{
		Title:       "Plastic-Free Week",
		Description: "Avoid single-use plastics for 7 consecutive days",
		PointValue:  150,
		Category:    "Waste Management",
		Difficulty:  models.DifficultyHard,
		Location:    "Home/School",
	},
	{
		Title:       "Water Conservation Audit",
		Description: "Measure and reduce water usage at home",
		PointValue:  100,
		Category:    "Water Conservation",
		Difficulty:  models.DifficultyEasy,
		Location:    "Home",
	},
	{
		Title:       "Energy Saving Challenge",
		Description: "Reduce household energy consumption by 20% this month",
		PointValue:  180,
		Category:    "Energy",
		Difficulty:  models.DifficultyMedium,
		Location:    "Home",
	},
	{
		Title:       "Composting Initiative",
		Description: "Start a composting system and maintain it for 2 weeks",
		PointValue:  120,
		Category:    "Waste Management",
		Difficulty:  models.DifficultyEasy,
		Location:    "Home/School",
	},
}

// SeedChallenges inserts the default catalog (idempotent, keyed by slug)
func (s *CatalogService) SeedChallenges() error {
	for _, ch := range seedChallenges {
		chSlug := slug.Make(ch.Title)
		var count int64
		if err := s.DB.Model(&models.Challenge{}).Where("slug = ?", chSlug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		row := ch
		row.ID = uuid.NewString()
		row.Slug = chSlug
		if err := s.DB.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// ListForUser returns the catalog with the user's completion flags joined in.
func (s *CatalogService) ListForUser(externalUserID string) ([]ChallengeView, error) {
	var challenges []models.Challenge
	if err := s.DB.Order("created_at ASC").Find(&challenges).Error; err != nil {
		return nil, err
	}

	completed := map[string]bool{}
	if externalUserID != "" {
		var completions []models.ChallengeCompletion
		if err := s.DB.Where("external_user_id = ?", externalUserID).Find(&completions).Error; err != nil {
			return nil, err
		}
		for _, c := range completions {
			completed[c.ChallengeID] = true
		}
	}

	views := make([]ChallengeView, len(challenges))
	for i, ch := range challenges {
		views[i] = ChallengeView{Challenge: ch, Completed: completed[ch.ID]}
	}
	return views, nil
}

// GetBySlug resolves a catalog entry by its slug.
func (s *CatalogService) GetBySlug(challengeSlug string) (*models.Challenge, error) {
	var ch models.Challenge
	if err := s.DB.Where("slug = ?", challengeSlug).First(&ch).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	return &ch, nil
}
