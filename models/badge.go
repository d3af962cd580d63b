package models

import (
	"time"
)

// BadgeType: static config (loaded from DB or JSON)
type BadgeType struct {
	ID          string `gorm:"primaryKey;type:uuid"`
	Code        string `gorm:"uniqueIndex;not null"` // e.g., "FIRST_CHALLENGE", "POINTS_1000"
	Name        string `gorm:"not null"`             // "First Steps", "Eco Warrior"
	Description string
	IconURL     string           `gorm:"type:text"`
	Rarity      string           `gorm:"type:varchar(16);default:'common'"` // common, rare, epic, legendary
	Threshold   map[string]int64 `gorm:"serializer:json"`                   // e.g., {"completed_challenges": 3}
	CreatedAt   time.Time        `gorm:"autoCreateTime"`
}

// UserBadge: awarded instance (many-to-many)
type UserBadge struct {
	ID             string    `gorm:"primaryKey;type:uuid"`
	ExternalUserID string    `gorm:"index;not null"`
	BadgeTypeID    string    `gorm:"index;not null"`
	AwardedAt      time.Time `gorm:"autoCreateTime"`
	Metadata       string    `json:"metadata"` // e.g., {"challenge_id": "..."}
}

// Predefined badge triggers
var BadgeTriggers = []BadgeType{
	{
		Code:        "WELCOME",
		Name:        "Welcome Aboard!",
		Description: "Joined the platform",
		Rarity:      "common",
		Threshold:   map[string]int64{"event": 1}, // awarded on first hydration
	},
	{
		Code:        "FIRST_CHALLENGE",
		Name:        "First Steps",
		Description: "Completed your first environmental challenge",
		Rarity:      "common",
		Threshold:   map[string]int64{"completed_challenges": 1},
	},
	{
		Code:        "CHALLENGE_3",
		Name:        "Eco Champion",
		Description: "Completed 3 environmental challenges",
		Rarity:      "rare",
		Threshold:   map[string]int64{"completed_challenges": 3},
	},
	{
		Code:        "POINTS_500",
		Name:        "Green Collector",
		Description: "Earned 500 eco points",
		Rarity:      "rare",
		Threshold:   map[string]int64{"eco_points": 500},
	},
	{
		Code:        "POINTS_1000",
		Name:        "Eco Warrior",
		Description: "Earned 1,000 eco points",
		Rarity:      "epic",
		Threshold:   map[string]int64{"eco_points": 1000},
	},
	{
		Code:        "LEVEL_10",
		Name:        "Forest Guardian",
		Description: "Reached Level 10",
		Rarity:      "epic",
		Threshold:   map[string]int64{"level": 10},
	},
}
