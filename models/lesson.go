package models

import (
	"time"
)

// LearningModule is a catalog entry for the learning section.
type LearningModule struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`
	Duration    string `json:"duration"` // e.g., "15 min"
	PointValue  int64  `json:"point_value"`

	Timestamps
}

// LessonProgress tracks a user's percentage through a module. Progress only
// moves forward; reaching 100 awards the module's points exactly once.
type LessonProgress struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string     `gorm:"uniqueIndex:idx_user_module;not null" json:"external_user_id"`
	ModuleID       string     `gorm:"uniqueIndex:idx_user_module;not null" json:"module_id"`
	Progress       int        `json:"progress" gorm:"default:0"` // 0-100
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}
