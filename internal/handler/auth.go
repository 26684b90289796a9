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

// AuthService is the surface of the auth service the handler uses.
// Implemented by service.AuthService.
type AuthService interface {
	Register(ctx context.Context, input *domain.RegisterInput) (*domain.AuthResult, error)
	Login(ctx context.Context, input *domain.LoginInput, ipAddress, userAgent string) (*domain.AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	Logout(ctx context.Context, refreshToken string, userID uuid.UUID, userEmail string) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input *domain.UpdateProfileInput) (*domain.User, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input domain.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	result, err := h.authService.Register(c.Context(), &input)
	if err != nil {
		return respondError(c, h.logger, err, "register")
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input domain.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	result, err := h.authService.Login(c.Context(), &input, c.IP(), c.Get("User-Agent"))
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid email or password")
		}
		return respondError(c, h.logger, err, "log in")
	}

	return c.JSON(result)
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refreshToken"`
	}

	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	if input.RefreshToken == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Refresh token is required")
	}

	result, err := h.authService.RefreshToken(c.Context(), input.RefreshToken)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			return errorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token")
		}
		return respondError(c, h.logger, err, "refresh token")
	}

	return c.JSON(result)
}

// Logout handles POST /auth/logout. Public: an expired access token
// must still be able to end its session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input struct {
		RefreshToken string `json:"refreshToken"`
	}

	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	if input.RefreshToken == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Refresh token is required")
	}

	userID, _ := middleware.GetUserID(c)
	var email string
	if userID != uuid.Nil {
		if user, err := h.authService.GetUserByID(c.Context(), userID); err == nil {
			email = user.Email
		}
	}

	if err := h.authService.Logout(c.Context(), input.RefreshToken, userID, email); err != nil {
		// Session state is not leaked through logout errors
		h.logger.Error("logout failed", zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "User not authenticated")
	}

	user, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "get user")
	}

	return c.JSON(user)
}

// UpdateProfile handles PATCH /auth/me
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "User not authenticated")
	}

	var input domain.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	user, err := h.authService.UpdateProfile(c.Context(), userID, &input)
	if err != nil {
		return respondError(c, h.logger, err, "update profile")
	}

	return c.JSON(user)
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(app *fiber.App, authMiddleware *middleware.AuthMiddleware) {
	auth := app.Group("/api/auth")

	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/refresh", h.RefreshToken)
	auth.Post("/logout", h.Logout)

	protected := auth.Group("", authMiddleware.RequireJWT())
	protected.Get("/me", h.Me)
	protected.Patch("/me", h.UpdateProfile)
}
