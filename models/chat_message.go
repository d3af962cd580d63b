package models

import (
	"time"
)

// ChatExchange is the persisted conversation log: one row per completed round
// trip (user message + assistant response). Written best-effort after a
// successful reply; failures are logged and swallowed.
type ChatExchange struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	Message        string    `gorm:"type:text;not null" json:"message"`
	Response       string    `gorm:"type:text" json:"response"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}
