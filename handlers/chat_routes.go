// handlers/chat_routes.go
package handlers

import (
	"errors"

	"eco-challenge-system/middleware"
	"eco-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChatRoutes(app *fiber.App, chatService *services.ChatService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/chat", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			Message string `json:"message"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		result, err := chatService.Send(c.Context(), userID, req.Message)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrNoUser):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "message must not be empty",
				})
			case errors.Is(err, services.ErrAssistantUnavailable):
				// The fallback reply is already in the log; the user message
				// stays. Surface a transient notice, not a hard failure.
				return c.JSON(fiber.Map{
					"status":  result.Status,
					"reply":   result.Reply,
					"notice":  "Chat is having trouble connecting right now — your message was kept.",
					"message": result.UserMessage,
				})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "chat failed",
					"cause": err.Error(),
				})
			}
		}

		return c.JSON(fiber.Map{
			"status":  result.Status,
			"reply":   result.Reply,
			"message": result.UserMessage,
		})
	})

	securedGroup.Get("/chat/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		messages, status := chatService.History(userID)
		return c.JSON(fiber.Map{
			"status":   status,
			"messages": messages,
		})
	})

	securedGroup.Delete("/chat", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		chatService.Reset(userID)
		return c.JSON(fiber.Map{
			"message": "chat session reset",
		})
	})
}
