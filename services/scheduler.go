// services/scheduler.go
package services

import (
	"log"
	"time"

	"eco-challenge-system/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// StartRefreshScheduler recomputes the derived catalog/leaderboard columns:
// participant counts from submission activity, dense ranks from points.
func StartRefreshScheduler(db *gorm.DB) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			refreshParticipantCounts(db)
			refreshRanks(db)
		}),
	)
}

func refreshParticipantCounts(db *gorm.DB) {
	var challenges []models.Challenge
	if err := db.Find(&challenges).Error; err != nil {
		log.Printf("[Scheduler] DB error: %v", err)
		return
	}

	for _, ch := range challenges {
		var count int64
		if err := db.Model(&models.EvidenceSubmission{}).
			Where("challenge_id = ?", ch.ID).
			Distinct("external_user_id").
			Count(&count).Error; err != nil {
			log.Printf("[Scheduler] Failed to count participants for %s: %v", ch.Slug, err)
			continue
		}
		if count != ch.ParticipantCount {
			if err := db.Model(&models.Challenge{}).
				Where("id = ?", ch.ID).
				Update("participant_count", count).Error; err != nil {
				log.Printf("[Scheduler] Failed to update participant count for %s: %v", ch.Slug, err)
			}
		}
	}
}

func refreshRanks(db *gorm.DB) {
	var profiles []models.EcoProfile
	if err := db.Order("eco_points DESC, created_at ASC").Find(&profiles).Error; err != nil {
		log.Printf("[Scheduler] DB error: %v", err)
		return
	}

	for i, p := range profiles {
		rank := i + 1
		if p.Rank == rank {
			continue
		}
		if err := db.Model(&models.EcoProfile{}).
			Where("id = ?", p.ID).
			Update("rank", rank).Error; err != nil {
			log.Printf("[Scheduler] Failed to update rank for %s: %v", p.ExternalUserID, err)
		}
	}
}
