package middleware

import (
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
)

// Authorize resolves the signed credential from the token cookie set at
// login. Handlers behind it can rely on a principal being present.
func Authorize(signingSecret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  []byte(signingSecret),
		TokenLookup: "cookie:token",
		ErrorHandler: jwtError,
		ContextKey:  "identity",
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"status": "error", "message": "authentication required", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}
