package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/middleware"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

// APIKeyService is the surface of the auth service the API key
// handler uses. Implemented by service.AuthService.
type APIKeyService interface {
	CreateAPIKey(ctx context.Context, input *domain.APIKeyInput) (*domain.APIKeyCreateResult, error)
	ListAPIKeys(ctx context.Context) ([]domain.APIKey, error)
	DeleteAPIKey(ctx context.Context, id uuid.UUID) error
}

// APIKeysHandler handles API key endpoints
type APIKeysHandler struct {
	authService APIKeyService
	logger      *zap.Logger
}

// NewAPIKeysHandler creates a new API keys handler
func NewAPIKeysHandler(authService APIKeyService, logger *zap.Logger) *APIKeysHandler {
	return &APIKeysHandler{
		authService: authService,
		logger:      logger,
	}
}

// ListAPIKeys handles GET /apikeys
func (h *APIKeysHandler) ListAPIKeys(c *fiber.Ctx) error {
	keys, err := h.authService.ListAPIKeys(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "list API keys")
	}

	return c.JSON(fiber.Map{
		"data": keys,
	})
}

// CreateAPIKey handles POST /apikeys
func (h *APIKeysHandler) CreateAPIKey(c *fiber.Ctx) error {
	var input domain.APIKeyInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	result, err := h.authService.CreateAPIKey(c.Context(), &input)
	if err != nil {
		return respondError(c, h.logger, err, "create API key")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":               result.APIKey.ID,
		"name":             result.APIKey.Name,
		"publicKey":        result.APIKey.PublicKey,
		"secretKey":        result.SecretKey, // Only returned on creation
		"secretKeyPreview": result.APIKey.SecretKeyPreview,
		"scopes":           result.APIKey.Scopes,
		"expiresAt":        result.APIKey.ExpiresAt,
		"createdAt":        result.APIKey.CreatedAt,
		"note":             "This is the only time the full secret key will be shown. Please save it securely.",
	})
}

// DeleteAPIKey handles DELETE /apikeys/:id
func (h *APIKeysHandler) DeleteAPIKey(c *fiber.Ctx) error {
	keyID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	if err := h.authService.DeleteAPIKey(c.Context(), keyID); err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "API key not found")
		}
		return respondError(c, h.logger, err, "delete API key")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterRoutes registers API key routes. Key management is a
// dashboard concern, so the group is always JWT-protected.
func (h *APIKeysHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	keys := app.Group("/api/v1/apikeys", authMiddleware.RequireJWT())

	keys.Get("/", h.ListAPIKeys)
	keys.Post("/", h.CreateAPIKey)
	keys.Delete("/:id", h.DeleteAPIKey)
}
