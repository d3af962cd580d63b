package models

import (
	"time"

	"gorm.io/gorm"
)

// EcoProfile mirrors a user from the authoritative profile service and carries
// the ledger-owned progression columns on the same row (denormalized for
// performance). Identity fields are overwritten each sync; points, level, rank
// and completed count are written only by the ledger after the initial seed.
type EcoProfile struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service

	// Identity (sync-owned)
	DisplayName string `json:"display_name" gorm:"default:'User'"`
	School      string `json:"school"` // school or organization name
	Role        string `json:"role" gorm:"type:varchar(16);default:'student'"`

	// Progression (ledger-owned)
	EcoPoints           int64 `json:"eco_points" gorm:"default:0"`
	Level               int   `json:"level" gorm:"default:1"`
	Rank                int   `json:"rank" gorm:"default:0"` // dense leaderboard rank, 0 = unranked
	CompletedChallenges int64 `json:"completed_challenges" gorm:"default:0"`

	// Milestones
	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
