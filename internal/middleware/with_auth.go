package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/redaia-api/internal/utils"
)

// RequireUser rejects requests whose verified token did not identify a
// user. It must run after JWTProtected.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(uint)
		if !ok || userID == 0 {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		return c.Next()
	}
}
