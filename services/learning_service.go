package services

import (
	"errors"
	"fmt"
	"time"

	"eco-challenge-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// LearningService tracks per-user lesson progress. Finishing a module routes
// its points through the ledger so crediting stays single-writer.
type LearningService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewLearningService(db *gorm.DB, ledger *LedgerService) *LearningService {
	return &LearningService{DB: db, Ledger: ledger}
}

var seedModules = []models.LearningModule{
	{Title: "Climate Change in Gujarat", Description: "Understanding local climate impacts and solutions", Duration: "15 min", PointValue: 50},
	{Title: "Sustainable Agriculture", Description: "Traditional and modern eco-friendly farming", Duration: "20 min", PointValue: 75},
	{Title: "Renewable Energy Systems", Description: "Solar and wind energy potential in India", Duration: "25 min", PointValue: 100},
	{Title: "Water Conservation Techniques", Description: "Traditional and modern water saving methods", Duration: "18 min", PointValue: 60},
	{Title: "Biodiversity in Western Ghats", Description: "Exploring Gujarat's unique ecosystems", Duration: "22 min", PointValue: 85},
}

// SeedModules inserts the default learning catalog (idempotent, keyed by slug)
func (s *LearningService) SeedModules() error {
	for _, m := range seedModules {
		mSlug := slug.Make(m.Title)
		var count int64
		if err := s.DB.Model(&models.LearningModule{}).Where("slug = ?", mSlug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		row := m
		row.ID = uuid.NewString()
		row.Slug = mSlug
		if err := s.DB.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// ModuleView is a module annotated with one user's progress.
type ModuleView struct {
	models.LearningModule
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
}

// ListForUser returns all modules with the user's progress joined in.
func (s *LearningService) ListForUser(externalUserID string) ([]ModuleView, error) {
	var modules []models.LearningModule
	if err := s.DB.Order("created_at ASC").Find(&modules).Error; err != nil {
		return nil, err
	}

	progress := map[string]models.LessonProgress{}
	if externalUserID != "" {
		var rows []models.LessonProgress
		if err := s.DB.Where("external_user_id = ?", externalUserID).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, p := range rows {
			progress[p.ModuleID] = p
		}
	}

	views := make([]ModuleView, len(modules))
	for i, m := range modules {
		p := progress[m.ID]
		views[i] = ModuleView{
			LearningModule: m,
			Progress:       p.Progress,
			Completed:      p.CompletedAt != nil,
		}
	}
	return views, nil
}

// UpdateProgress moves a user's lesson progress forward. Progress never moves
// backwards; crossing 100 for the first time awards the module's points once.
func (s *LearningService) UpdateProgress(externalUserID, moduleID string, progress int) (*ModuleView, error) {
	if externalUserID == "" {
		return nil, ErrNoUser
	}
	if progress < 0 || progress > 100 {
		return nil, fmt.Errorf("progress must be 0-100, got %d", progress)
	}

	var module models.LearningModule
	if err := s.DB.Where("id = ?", moduleID).First(&module).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModuleNotFound
		}
		return nil, err
	}

	var row models.LessonProgress
	err := s.DB.Where("external_user_id = ? AND module_id = ?", externalUserID, moduleID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		row = models.LessonProgress{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			ModuleID:       moduleID,
		}
		if err := s.DB.Create(&row).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	justCompleted := false
	if progress > row.Progress {
		row.Progress = progress
		if progress == 100 && row.CompletedAt == nil {
			now := time.Now()
			row.CompletedAt = &now
			justCompleted = true
		}
		// The completion flag and the credit commit together: a failed credit
		// rolls the flag back so a retry can still award the points.
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&row).Error; err != nil {
				return err
			}
			if justCompleted {
				if _, err := s.Ledger.CreditInTx(tx, externalUserID, module.PointValue, "lesson: "+module.Slug); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if justCompleted {
			badgeSvc := NewBadgeService(s.DB)
			_ = badgeSvc.AutoAwardBadges(externalUserID) // fire-and-forget
		}
	}

	return &ModuleView{
		LearningModule: module,
		Progress:       row.Progress,
		Completed:      row.CompletedAt != nil,
	}, nil
}
