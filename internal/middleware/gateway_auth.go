package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/echoroom/api/pkg/response"
)

// GatewayAuthMiddleware reads user identity from X-User-* headers set by
// the API gateway's ForwardAuth and populates Fiber context locals.
// Token verification itself happens at the gateway.
func GatewayAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-Id")
		if userID == "" {
			return response.Unauthorized(c, "Missing user identity headers")
		}

		c.Locals("userId", userID)
		c.Locals("email", c.Get("X-User-Email"))

		return c.Next()
	}
}

// GetUserID returns the authenticated user ID from context locals
func GetUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("userId").(string); ok {
		return id
	}
	return ""
}
