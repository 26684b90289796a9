// Package testutil provides shared test utilities for the Angela API.
package testutil

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/middleware"
)

// TestUserMiddleware creates a middleware that sets the user ID in context.
// Use this in tests to simulate JWT-authenticated requests.
func TestUserMiddleware(userID uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(string(middleware.ContextKeyUserID), userID)
		c.Locals(string(middleware.ContextKeyAuthType), middleware.AuthTypeJWT)
		return c.Next()
	}
}

// TestAPIKeyMiddleware creates a middleware that sets the API key in
// context. Use this in tests to simulate key-pair authenticated requests.
func TestAPIKeyMiddleware(key *domain.APIKey) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(string(middleware.ContextKeyAPIKeyID), key.ID)
		c.Locals(string(middleware.ContextKeyAPIKey), key)
		c.Locals(string(middleware.ContextKeyAuthType), middleware.AuthTypeAPIKey)
		return c.Next()
	}
}
