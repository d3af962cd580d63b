// handlers/challenge_routes.go
package handlers

import (
	"errors"
	"io"
	"log"

	"eco-challenge-system/middleware"
	"eco-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, catalogService *services.CatalogService, ledgerService *services.LedgerService) {
	// 🔐 Secured routes — require user context (userID, roles)
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/challenges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		views, err := catalogService.ListForUser(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list challenges",
				"cause": err.Error(),
			})
		}
		return c.JSON(views)
	})

	securedGroup.Post("/challenges/:id/evidence", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		challengeID := c.Params("id")

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "no evidence file selected",
			})
		}

		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "failed to open evidence file",
				"cause": err.Error(),
			})
		}
		defer file.Close()

		photo, err := io.ReadAll(file)
		if err != nil || len(photo) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "failed to read evidence file",
			})
		}

		outcome, err := ledgerService.SubmitEvidence(c.Context(), userID, challengeID, fileHeader.Filename, photo)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrChallengeNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "challenge not found",
				})
			case errors.Is(err, services.ErrVerificationUnavailable):
				// Retryable: the user may resubmit, nothing was credited.
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error":     "verification service unavailable — please try again",
					"retryable": true,
				})
			default:
				log.Printf("❌ [EVIDENCE] Submission failed for user %s: %v", userID, err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "evidence submission failed",
					"cause": err.Error(),
				})
			}
		}

		switch outcome.Status {
		case services.OutcomeAlreadyCompleted:
			return c.JSON(fiber.Map{
				"status":  outcome.Status,
				"message": "Challenge already completed — no points re-credited",
				"profile": outcome.Profile,
			})
		case services.OutcomeRejected:
			return c.JSON(fiber.Map{
				"status":  outcome.Status,
				"message": "Not a valid photo for this challenge",
				"verdict": outcome.Verdict,
			})
		default:
			return c.JSON(fiber.Map{
				"status":         outcome.Status,
				"message":        "Challenge completed!",
				"points_awarded": outcome.PointsAwarded,
				"profile":        outcome.Profile,
			})
		}
	})
}
