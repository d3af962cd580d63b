package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"eco-challenge-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StreamUserBadgesSSE streams newly awarded badges for the authenticated user
func (s *BadgeService) StreamUserBadgesSSE(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	// Use fasthttp stream writer (THIS replaces Flush)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var lastMaxAwardedAt time.Time

		// Initialize cursor
		var latest models.UserBadge
		if err := s.DB.
			Where("external_user_id = ?", userID).
			Order("awarded_at DESC").
			First(&latest).Error; err == nil {
			lastMaxAwardedAt = latest.AwardedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("SSE init error for user %s: %v", userID, err)
		}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				var newBadges []models.UserBadge

				err := s.DB.
					Where("external_user_id = ?", userID).
					Where("awarded_at > ?", lastMaxAwardedAt).
					Order("awarded_at ASC").
					Find(&newBadges).Error

				if err != nil {
					log.Printf("SSE query error for user %s: %v", userID, err)
					continue
				}

				if len(newBadges) == 0 {
					continue
				}

				lastMaxAwardedAt = newBadges[len(newBadges)-1].AwardedAt

				for _, ub := range newBadges {
					var bt models.BadgeType
					if err := s.DB.Where("id = ?", ub.BadgeTypeID).First(&bt).Error; err != nil {
						continue
					}
					payload, _ := json.Marshal(fiber.Map{
						"code":       bt.Code,
						"name":       bt.Name,
						"rarity":     bt.Rarity,
						"awarded_at": ub.AwardedAt,
					})

					fmt.Fprintf(w,
						"event: badge\ndata: %s\n\n",
						payload,
					)
				}

				// This is the REAL "flush"
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				// Client closed connection
				return
			}
		}
	})

	return nil
}
