// handlers/learning_routes.go
package handlers

import (
	"errors"

	"eco-challenge-system/middleware"
	"eco-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLearningRoutes(app *fiber.App, learningService *services.LearningService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/learning", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		views, err := learningService.ListForUser(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list learning modules",
				"cause": err.Error(),
			})
		}
		return c.JSON(views)
	})

	securedGroup.Patch("/learning/:id/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		moduleID := c.Params("id")

		type Req struct {
			Progress int `json:"progress"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		view, err := learningService.UpdateProgress(userID, moduleID, req.Progress)
		if err != nil {
			if errors.Is(err, services.ErrModuleNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "learning module not found",
				})
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "failed to update progress",
				"cause": err.Error(),
			})
		}
		return c.JSON(view)
	})
}
