package services

import (
	"fmt"

	"eco-challenge-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// SeedBadgeTypes upserts the predefined trigger catalog (idempotent, run at startup)
func (s *BadgeService) SeedBadgeTypes() error {
	for _, trigger := range models.BadgeTriggers {
		var count int64
		if err := s.DB.Model(&models.BadgeType{}).Where("code = ?", trigger.Code).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			bt := trigger
			bt.ID = uuid.NewString()
			if err := s.DB.Create(&bt).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

// AutoAwardBadges checks all badge triggers for a user after a progress update
func (s *BadgeService) AutoAwardBadges(externalUserID string) error {
	var prof models.EcoProfile
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&prof).Error; err != nil {
		return err
	}

	var types []models.BadgeType
	if err := s.DB.Find(&types).Error; err != nil {
		return err
	}

	for _, trigger := range types {
		if s.meetsThreshold(&prof, trigger.Threshold) {
			// Check if already awarded
			var count int64
			s.DB.Model(&models.UserBadge{}).
				Where("external_user_id = ? AND badge_type_id = ?", externalUserID, trigger.ID).
				Count(&count)
			if count == 0 {
				userBadge := models.UserBadge{
					ID:             uuid.NewString(),
					ExternalUserID: externalUserID,
					BadgeTypeID:    trigger.ID,
				}
				if err := s.DB.Create(&userBadge).Error; err != nil {
					return err
				}
				fmt.Printf("🎖️ Badge awarded: %s → %s\n", trigger.Name, externalUserID)
			}
		}
	}

	return nil
}

func (s *BadgeService) meetsThreshold(prof *models.EcoProfile, req map[string]int64) bool {
	for key, required := range req {
		switch key {
		case "completed_challenges":
			if prof.CompletedChallenges < required {
				return false
			}
		case "eco_points":
			if prof.EcoPoints < required {
				return false
			}
		case "level":
			if int64(prof.Level) < required {
				return false
			}
		case "event": // special: always true (e.g., signup)
			return true
		}
	}
	return true
}

// GetUserBadges returns awarded badges joined with their type info.
func (s *BadgeService) GetUserBadges(externalUserID string) ([]map[string]interface{}, error) {
	var userBadges []models.UserBadge
	if err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("awarded_at ASC").
		Find(&userBadges).Error; err != nil {
		return nil, err
	}

	result := make([]map[string]interface{}, 0, len(userBadges))
	for _, ub := range userBadges {
		var bt models.BadgeType
		if err := s.DB.Where("id = ?", ub.BadgeTypeID).First(&bt).Error; err != nil {
			continue
		}
		result = append(result, map[string]interface{}{
			"id":          ub.ID,
			"code":        bt.Code,
			"name":        bt.Name,
			"description": bt.Description,
			"icon_url":    bt.IconURL,
			"rarity":      bt.Rarity,
			"awarded_at":  ub.AwardedAt,
			"metadata":    ub.Metadata,
		})
	}
	return result, nil
}
