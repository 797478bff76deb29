package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	config "github.com/maheshrc27/postpipe/configs"
	"github.com/maheshrc27/postpipe/pkg/utils"
)

type AuthMiddleware struct {
	cfg config.Config
}

func NewAuthMiddleware(cfg config.Config) *AuthMiddleware {
	if cfg.SecretKey == "" && cfg.APIKey == "" {
		log.Println("Warning: SECRET_KEY and API_KEY are empty, the API is unauthenticated")
	}
	return &AuthMiddleware{cfg: cfg}
}

// AuthMiddleware accepts a bearer token signed with SECRET_KEY or the
// configured API key, sent as X-API-Key or ?api_key=.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.cfg.SecretKey == "" && m.cfg.APIKey == "" {
			c.Locals("subject", "anonymous")
			return c.Next()
		}

		apiKey := c.Get("X-API-Key")
		if apiKey == "" {
			apiKey = c.Query("api_key")
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))

		if tokenString == "" && apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing API key or bearer token",
			})
		}

		if apiKey != "" {
			if !utils.MatchKey(m.cfg.APIKey, apiKey) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid API key",
				})
			}
			c.Locals("subject", "api_key")
			return c.Next()
		}

		if m.cfg.SecretKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Bearer tokens are not enabled",
			})
		}
		claims, err := utils.ValidateToken(m.cfg.SecretKey, tokenString)
		if err != nil {
			log.Printf("Token validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("subject", claims.Subject)
		return c.Next()
	}
}
