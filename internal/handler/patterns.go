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

// PatternService is the surface of the pattern service the handler uses.
// Implemented by service.PatternService.
type PatternService interface {
	Create(ctx context.Context, input *domain.PatternInput) (*domain.Pattern, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Pattern, error)
	Update(ctx context.Context, id uuid.UUID, input *domain.PatternUpdateInput) (*domain.Pattern, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.PatternFilter) (*domain.PatternList, error)
	Reinforce(ctx context.Context, id uuid.UUID) (*domain.Pattern, error)
	Contradict(ctx context.Context, id uuid.UUID) (*domain.Pattern, error)
}

// PatternsHandler handles behavioral pattern endpoints
type PatternsHandler struct {
	patternService PatternService
	auditor        AuditLogger
	logger         *zap.Logger
}

// NewPatternsHandler creates a new patterns handler
func NewPatternsHandler(patternService PatternService, auditor AuditLogger, logger *zap.Logger) *PatternsHandler {
	return &PatternsHandler{
		patternService: patternService,
		auditor:        auditor,
		logger:         logger,
	}
}

// ListPatterns handles GET /patterns
func (h *PatternsHandler) ListPatterns(c *fiber.Ctx) error {
	filter := &domain.PatternFilter{
		Active:        parseQueryBool(c, "active"),
		MinConfidence: parseQueryFloat(c, "minConfidence"),
	}

	if kindStr := c.Query("kind"); kindStr != "" {
		kind := domain.PatternKind(kindStr)
		if !kind.IsValid() {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid kind: "+kindStr)
		}
		filter.Kind = &kind
	}

	p := ParsePagination(c, 100)
	filter.Limit = p.Limit
	filter.Offset = p.Offset

	list, err := h.patternService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.logger, err, "list patterns")
	}

	return c.JSON(list)
}

// GetPattern handles GET /patterns/:id
func (h *PatternsHandler) GetPattern(c *fiber.Ctx) error {
	patternID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	pattern, err := h.patternService.Get(c.Context(), patternID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Pattern not found")
		}
		return respondError(c, h.logger, err, "get pattern")
	}

	return c.JSON(pattern)
}

// CreatePattern handles POST /patterns
func (h *PatternsHandler) CreatePattern(c *fiber.Ctx) error {
	var input domain.PatternInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	pattern, err := h.patternService.Create(c.Context(), &input)
	if err != nil {
		return respondError(c, h.logger, err, "create pattern")
	}

	h.auditor.LogCreated(c.Context(), domain.AuditResourcePattern, pattern.ID, pattern.Description, requestContext(c))

	return c.Status(fiber.StatusCreated).JSON(pattern)
}

// UpdatePattern handles PATCH /patterns/:id
func (h *PatternsHandler) UpdatePattern(c *fiber.Ctx) error {
	patternID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	var input domain.PatternUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	pattern, err := h.patternService.Update(c.Context(), patternID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Pattern not found")
		}
		return respondError(c, h.logger, err, "update pattern")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourcePattern, pattern.ID, pattern.Description, requestContext(c))

	return c.JSON(pattern)
}

// DeletePattern handles DELETE /patterns/:id
func (h *PatternsHandler) DeletePattern(c *fiber.Ctx) error {
	patternID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	pattern, err := h.patternService.Get(c.Context(), patternID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Pattern not found")
		}
		return respondError(c, h.logger, err, "delete pattern")
	}

	if err := h.patternService.Delete(c.Context(), patternID); err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Pattern not found")
		}
		return respondError(c, h.logger, err, "delete pattern")
	}

	h.auditor.LogDeleted(c.Context(), domain.AuditResourcePattern, patternID, pattern.Description, requestContext(c))

	return c.SendStatus(fiber.StatusNoContent)
}

// ReinforcePattern handles POST /patterns/:id/reinforce
func (h *PatternsHandler) ReinforcePattern(c *fiber.Ctx) error {
	patternID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	pattern, err := h.patternService.Reinforce(c.Context(), patternID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Pattern not found")
		}
		return respondError(c, h.logger, err, "reinforce pattern")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourcePattern, pattern.ID, pattern.Description, requestContext(c))

	return c.JSON(pattern)
}

// ContradictPattern handles POST /patterns/:id/contradict
func (h *PatternsHandler) ContradictPattern(c *fiber.Ctx) error {
	patternID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	pattern, err := h.patternService.Contradict(c.Context(), patternID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Pattern not found")
		}
		return respondError(c, h.logger, err, "contradict pattern")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourcePattern, pattern.ID, pattern.Description, requestContext(c))

	return c.JSON(pattern)
}

// RegisterRoutes registers pattern routes on the given router group.
func (h *PatternsHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	patterns := r.Group("/patterns")

	patterns.Get("/", auth.RequireScope("patterns:read"), h.ListPatterns)
	patterns.Post("/", auth.RequireScope("patterns:write"), h.CreatePattern)
	patterns.Get("/:id", auth.RequireScope("patterns:read"), h.GetPattern)
	patterns.Patch("/:id", auth.RequireScope("patterns:write"), h.UpdatePattern)
	patterns.Delete("/:id", auth.RequireScope("patterns:write"), h.DeletePattern)
	patterns.Post("/:id/reinforce", auth.RequireScope("patterns:write"), h.ReinforcePattern)
	patterns.Post("/:id/contradict", auth.RequireScope("patterns:write"), h.ContradictPattern)
}
