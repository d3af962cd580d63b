package models

import (
	"time"
)

const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

const (
	SubmissionVerified    = "verified"
	SubmissionRejected    = "rejected"
	SubmissionUnavailable = "unavailable"
)

// Challenge is a catalog entry. Rows are global; per-user completion lives in
// ChallengeCompletion so the catalog itself never flips flags.
type Challenge struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`
	PointValue  int64  `json:"point_value" gorm:"not null"`
	Difficulty  string `json:"difficulty" gorm:"type:varchar(16);default:'Easy'"`
	Category    string `json:"category"`
	Location    string `json:"location"`

	// Refreshed by the scheduler from completion/submission rows
	ParticipantCount int64 `json:"participant_count" gorm:"default:0"`

	Timestamps
}

// ChallengeCompletion records a challenge credited to a user. The composite
// unique index is the at-most-once guard: a second credit attempt conflicts
// instead of double-counting.
type ChallengeCompletion struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex:idx_user_challenge;not null" json:"external_user_id"`
	ChallengeID    string    `gorm:"uniqueIndex:idx_user_challenge;not null" json:"challenge_id"`
	PointsAwarded  int64     `json:"points_awarded"`
	EvidenceURL    string    `json:"evidence_url"`
	CompletedAt    time.Time `json:"completed_at" gorm:"autoCreateTime"`
}

// EvidenceSubmission is the audit trail: one row per verifier round trip,
// whatever the outcome.
type EvidenceSubmission struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	ChallengeID    string    `gorm:"index;not null" json:"challenge_id"`
	PhotoURL       string    `json:"photo_url"`
	Status         string    `gorm:"type:varchar(16)" json:"status"` // verified | rejected | unavailable
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}
