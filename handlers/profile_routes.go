// handlers/profile_routes.go
package handlers

import (
	"strconv"

	"eco-challenge-system/middleware"
	"eco-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(app *fiber.App, ledgerService *services.LedgerService, badgeService *services.BadgeService, leaderboardService *services.LeaderboardService, profileClient *services.ProfileServiceClient) {
	// 🔓 Public routes
	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		entries, err := leaderboardService.TopStudents(limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to build leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(entries)
	})

	app.Get("/leaderboard/schools", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "10"))
		entries, err := leaderboardService.TopSchools(limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to build school leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(entries)
	})

	// 🔐 Secured routes — require user context
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/profile", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		prof, err := ledgerService.EnsureProfile(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load profile",
				"cause": err.Error(),
			})
		}

		rank, err := leaderboardService.UserRank(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to compute rank",
				"cause": err.Error(),
			})
		}

		badges, err := badgeService.GetUserBadges(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get badges",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"id":                   prof.ID,
			"external_user_id":     prof.ExternalUserID,
			"name":                 prof.DisplayName,
			"school":               prof.School,
			"role":                 prof.Role,
			"eco_points":           prof.EcoPoints,
			"level":                prof.Level,
			"rank":                 rank,
			"completed_challenges": prof.CompletedChallenges,
			"badges":               badges,
			"last_level_up_at":     prof.LastLevelUpAt,
		})
	})

	securedGroup.Get("/user/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		badges, err := badgeService.GetUserBadges(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get badges",
				"cause": err.Error(),
			})
		}
		return c.JSON(badges)
	})

	// SSE stream — query-param token auth (EventSource cannot set headers)
	app.Get("/user/badges/stream", middleware.SSEAuthMiddleware(profileClient), badgeService.StreamUserBadgesSSE)
}
