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

// SkillService is the surface of the skill service the handler uses.
// Implemented by service.SkillService.
type SkillService interface {
	Create(ctx context.Context, input *domain.SkillInput) (*domain.Skill, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Skill, error)
	Update(ctx context.Context, id uuid.UUID, input *domain.SkillUpdateInput) (*domain.Skill, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.SkillFilter) (*domain.SkillList, error)
	RecordPractice(ctx context.Context, id uuid.UUID) (*domain.Skill, error)
}

// SkillsHandler handles skill endpoints
type SkillsHandler struct {
	skillService SkillService
	auditor      AuditLogger
	logger       *zap.Logger
}

// NewSkillsHandler creates a new skills handler
func NewSkillsHandler(skillService SkillService, auditor AuditLogger, logger *zap.Logger) *SkillsHandler {
	return &SkillsHandler{
		skillService: skillService,
		auditor:      auditor,
		logger:       logger,
	}
}

// ListSkills handles GET /skills
func (h *SkillsHandler) ListSkills(c *fiber.Ctx) error {
	filter := &domain.SkillFilter{
		Category: parseQueryString(c, "category"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.SkillStatus(statusStr)
		if !status.IsValid() {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid status: "+statusStr)
		}
		filter.Status = &status
	}

	p := ParsePagination(c, 100)
	filter.Limit = p.Limit
	filter.Offset = p.Offset

	list, err := h.skillService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.logger, err, "list skills")
	}

	return c.JSON(list)
}

// GetSkill handles GET /skills/:id
func (h *SkillsHandler) GetSkill(c *fiber.Ctx) error {
	skillID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	skill, err := h.skillService.Get(c.Context(), skillID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Skill not found")
		}
		return respondError(c, h.logger, err, "get skill")
	}

	return c.JSON(skill)
}

// CreateSkill handles POST /skills
func (h *SkillsHandler) CreateSkill(c *fiber.Ctx) error {
	var input domain.SkillInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	skill, err := h.skillService.Create(c.Context(), &input)
	if err != nil {
		return respondError(c, h.logger, err, "create skill")
	}

	h.auditor.LogCreated(c.Context(), domain.AuditResourceSkill, skill.ID, skill.Name, requestContext(c))

	return c.Status(fiber.StatusCreated).JSON(skill)
}

// UpdateSkill handles PATCH /skills/:id
func (h *SkillsHandler) UpdateSkill(c *fiber.Ctx) error {
	skillID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	var input domain.SkillUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	skill, err := h.skillService.Update(c.Context(), skillID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Skill not found")
		}
		return respondError(c, h.logger, err, "update skill")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceSkill, skill.ID, skill.Name, requestContext(c))

	return c.JSON(skill)
}

// DeleteSkill handles DELETE /skills/:id
func (h *SkillsHandler) DeleteSkill(c *fiber.Ctx) error {
	skillID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	skill, err := h.skillService.Get(c.Context(), skillID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Skill not found")
		}
		return respondError(c, h.logger, err, "delete skill")
	}

	if err := h.skillService.Delete(c.Context(), skillID); err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Skill not found")
		}
		return respondError(c, h.logger, err, "delete skill")
	}

	h.auditor.LogDeleted(c.Context(), domain.AuditResourceSkill, skillID, skill.Name, requestContext(c))

	return c.SendStatus(fiber.StatusNoContent)
}

// RecordPractice handles POST /skills/:id/practice
func (h *SkillsHandler) RecordPractice(c *fiber.Ctx) error {
	skillID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	skill, err := h.skillService.RecordPractice(c.Context(), skillID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Skill not found")
		}
		return respondError(c, h.logger, err, "record practice")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceSkill, skill.ID, skill.Name, requestContext(c))

	return c.JSON(skill)
}

// RegisterRoutes registers skill routes on the given router group.
func (h *SkillsHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	skills := r.Group("/skills")

	skills.Get("/", auth.RequireScope("skills:read"), h.ListSkills)
	skills.Post("/", auth.RequireScope("skills:write"), h.CreateSkill)
	skills.Get("/:id", auth.RequireScope("skills:read"), h.GetSkill)
	skills.Patch("/:id", auth.RequireScope("skills:write"), h.UpdateSkill)
	skills.Delete("/:id", auth.RequireScope("skills:write"), h.DeleteSkill)
	skills.Post("/:id/practice", auth.RequireScope("skills:write"), h.RecordPractice)
}
