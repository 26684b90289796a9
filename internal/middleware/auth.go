package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/pkg/keys"
	"github.com/angelahq/angela/internal/service"
)

// ContextKey type for context keys
type ContextKey string

const (
	// Context keys
	ContextKeyUserID   ContextKey = "userID"
	ContextKeyAPIKeyID ContextKey = "apiKeyID"
	ContextKeyAPIKey   ContextKey = "apiKey"
	ContextKeyAuthType ContextKey = "authType"
)

// AuthType represents the type of authentication used
type AuthType string

const (
	AuthTypeAPIKey AuthType = "api_key"
	AuthTypeJWT    AuthType = "jwt"
)

// AuthMiddleware handles authentication
type AuthMiddleware struct {
	authService *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// RequireAPIKey validates key-pair authentication for the app group
func (m *AuthMiddleware) RequireAPIKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		publicKey, secretKey := extractKeyPair(c)
		if publicKey == "" || secretKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "API key required",
			})
		}

		key, err := m.authService.ValidateAPIKey(c.Context(), publicKey, secretKey)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Invalid API key",
			})
		}

		c.Locals(string(ContextKeyAPIKeyID), key.ID)
		c.Locals(string(ContextKeyAPIKey), key)
		c.Locals(string(ContextKeyAuthType), AuthTypeAPIKey)

		return c.Next()
	}
}

// RequireJWT validates JWT authentication for the dashboard group
func (m *AuthMiddleware) RequireJWT() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Authorization header required",
			})
		}

		claims, err := m.authService.ValidateJWT(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Invalid or expired token",
			})
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Invalid user ID in token",
			})
		}

		c.Locals(string(ContextKeyUserID), userID)
		c.Locals(string(ContextKeyAuthType), AuthTypeJWT)

		return c.Next()
	}
}

// RequireAuth accepts either a key pair or a JWT. Used on surfaces both
// the dashboard and the apps hit, like the event stream.
func (m *AuthMiddleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		publicKey, secretKey := extractKeyPair(c)
		if publicKey != "" && secretKey != "" {
			key, err := m.authService.ValidateAPIKey(c.Context(), publicKey, secretKey)
			if err == nil {
				c.Locals(string(ContextKeyAPIKeyID), key.ID)
				c.Locals(string(ContextKeyAPIKey), key)
				c.Locals(string(ContextKeyAuthType), AuthTypeAPIKey)
				return c.Next()
			}
		}

		token := extractBearerToken(c)
		if token != "" {
			claims, err := m.authService.ValidateJWT(c.Context(), token)
			if err == nil {
				if userID, err := uuid.Parse(claims.UserID); err == nil {
					c.Locals(string(ContextKeyUserID), userID)
					c.Locals(string(ContextKeyAuthType), AuthTypeJWT)
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Unauthorized",
			"message": "Valid authentication required",
		})
	}
}

// RequireScope gates a route on an API key scope. JWT sessions belong
// to the owner and pass every scope check.
func (m *AuthMiddleware) RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authType, _ := GetAuthType(c)
		if authType != AuthTypeAPIKey {
			return c.Next()
		}

		key, ok := c.Locals(string(ContextKeyAPIKey)).(*domain.APIKey)
		if !ok || !key.HasScope(scope) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "Forbidden",
				"message": "API key is missing the " + scope + " scope",
			})
		}

		return c.Next()
	}
}

// extractKeyPair pulls the API key halves out of the request. Clients
// send either X-API-Key/X-API-Secret headers or a combined bearer token
// "ak-xxx.as-yyy".
func extractKeyPair(c *fiber.Ctx) (string, string) {
	publicKey := c.Get("X-API-Key")
	secretKey := c.Get("X-API-Secret")
	if publicKey != "" && secretKey != "" {
		return publicKey, secretKey
	}

	auth := c.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		if strings.HasPrefix(token, keys.PublicKeyPrefix) {
			if pub, sec, ok := strings.Cut(token, "."); ok && strings.HasPrefix(sec, keys.SecretKeyPrefix) {
				return pub, sec
			}
		}
	}

	return "", ""
}

// extractBearerToken extracts the JWT from the Authorization header,
// falling back to the access_token query parameter for EventSource
// clients that cannot set headers
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		if !strings.HasPrefix(token, keys.PublicKeyPrefix) {
			return token
		}
	}

	if token := c.Query("access_token"); token != "" {
		return token
	}

	return ""
}

// GetUserID gets the user ID from context
func GetUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals(string(ContextKeyUserID)).(uuid.UUID)
	return userID, ok
}

// GetAPIKeyID gets the API key ID from context
func GetAPIKeyID(c *fiber.Ctx) (uuid.UUID, bool) {
	apiKeyID, ok := c.Locals(string(ContextKeyAPIKeyID)).(uuid.UUID)
	return apiKeyID, ok
}

// GetAuthType gets the authentication type from context
func GetAuthType(c *fiber.Ctx) (AuthType, bool) {
	authType, ok := c.Locals(string(ContextKeyAuthType)).(AuthType)
	return authType, ok
}
