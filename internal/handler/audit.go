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

// AuditQueryService is the read side of the audit trail. Implemented
// by service.AuditService.
type AuditQueryService interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.AuditLog, error)
	List(ctx context.Context, filter *domain.AuditLogFilter) (*domain.AuditLogList, error)
}

// AuditHandler handles audit trail endpoints
type AuditHandler struct {
	auditService AuditQueryService
	logger       *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService AuditQueryService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// ListAuditLogs handles GET /audit
func (h *AuditHandler) ListAuditLogs(c *fiber.Ctx) error {
	filter := &domain.AuditLogFilter{
		ActorID:     parseQueryUUID(c, "actorId"),
		ResourceID:  parseQueryUUID(c, "resourceId"),
		StartTime:   parseQueryTime(c, "startTime"),
		EndTime:     parseQueryTime(c, "endTime"),
		SearchQuery: parseQueryString(c, "search"),
	}

	if s := c.Query("action"); s != "" {
		action := domain.AuditAction(s)
		filter.Action = &action
	}

	if s := c.Query("resourceType"); s != "" {
		resourceType := domain.AuditResourceType(s)
		filter.ResourceType = &resourceType
	}

	p := ParsePagination(c, 500)
	filter.Limit = p.Limit
	filter.Offset = p.Offset

	list, err := h.auditService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.logger, err, "list audit logs")
	}

	return c.JSON(list)
}

// GetAuditLog handles GET /audit/:id
func (h *AuditHandler) GetAuditLog(c *fiber.Ctx) error {
	logID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	entry, err := h.auditService.Get(c.Context(), logID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Audit log not found")
		}
		return respondError(c, h.logger, err, "get audit log")
	}

	return c.JSON(entry)
}

// RegisterRoutes registers audit routes on the given router group.
func (h *AuditHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	audit := r.Group("/audit")

	audit.Get("/", auth.RequireScope("admin:read"), h.ListAuditLogs)
	audit.Get("/:id", auth.RequireScope("admin:read"), h.GetAuditLog)
}
