package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/kirana/internal/config"
	"github.com/example/kirana/internal/utils"
)

const userContextKey = "currentUserEmail"

// AuthMiddleware validates JWT tokens and loads the verified shopper email
// into context.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email, err := bearerEmail(c, cfg)
		if err != nil {
			return err
		}
		c.Locals(userContextKey, email)
		return c.Next()
	}
}

// OptionalAuth loads the shopper email when a valid token is present but
// never rejects the request. Checkout accepts both guests and signed-in
// shoppers.
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if email, err := bearerEmail(c, cfg); err == nil {
			c.Locals(userContextKey, email)
		}
		return c.Next()
	}
}

func bearerEmail(c *fiber.Ctx, cfg *config.Config) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
	}

	email, err := utils.ParseToken(cfg.JWTSecret, parts[1])
	if err != nil {
		return "", fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	return email, nil
}

// GetCurrentEmail extracts the authenticated shopper email from context.
func GetCurrentEmail(c *fiber.Ctx) (string, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return "", false
	}

	if email, ok := value.(string); ok && email != "" {
		return email, true
	}

	return "", false
}
