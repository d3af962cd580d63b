// middleware/sse_auth.go
package middleware

import (
	"log"
	"strings"

	"eco-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

// SSEAuthMiddleware validates `token` from query params via the profile
// service. EventSource cannot send custom headers, so SSE routes authenticate
// from the query string instead of the gateway headers.
//
// Usage:
//
//	app.Get("/user/badges/stream", middleware.SSEAuthMiddleware(profileClient), badgeService.StreamUserBadgesSSE)
func SSEAuthMiddleware(profileClient *services.ProfileServiceClient) func(*fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		accessToken := strings.TrimSpace(string(c.Request().URI().QueryArgs().Peek("token")))

		if accessToken == "" {
			log.Printf("[SSEAuth] ❌ Missing token query param for %s", c.Path())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing token in query",
			})
		}

		resp, err := profileClient.ValidateToken(accessToken)
		if err != nil {
			log.Printf("[SSEAuth] ❌ Validation failed for token (prefix: %s...): %v",
				accessToken[:min(10, len(accessToken))], err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		c.Locals("user_id", resp.UserID)
		c.Locals("user_roles", resp.Roles)

		return c.Next()
	}
}
