package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/middleware"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
	"github.com/angelahq/angela/internal/service"
)

// MemoryStore is the surface of the memory service the handler uses.
// Implemented by service.MemoryService.
type MemoryStore interface {
	Remember(ctx context.Context, input *domain.MemoryInput) (*domain.MemoryFact, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.MemoryFact, error)
	Forget(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.MemoryFilter) (*domain.MemoryList, error)
	Search(ctx context.Context, input *domain.MemorySearchInput) ([]domain.MemorySearchResult, error)
}

// MemoryAuditor records memory erasure events. Forgetting is the one
// memory operation the audit trail must keep.
type MemoryAuditor interface {
	LogMemoryForgotten(ctx context.Context, factID uuid.UUID, content string, req service.RequestContext)
}

// MemoryHandler handles long-term memory endpoints
type MemoryHandler struct {
	memoryService MemoryStore
	auditor       MemoryAuditor
	logger        *zap.Logger
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(memoryService MemoryStore, auditor MemoryAuditor, logger *zap.Logger) *MemoryHandler {
	return &MemoryHandler{
		memoryService: memoryService,
		auditor:       auditor,
		logger:        logger,
	}
}

// Remember handles POST /memory. The fact is stored even when the
// embedding model is down; the backfill job embeds it later.
func (h *MemoryHandler) Remember(c *fiber.Ctx) error {
	var input domain.MemoryInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	fact, err := h.memoryService.Remember(c.Context(), &input)
	if err != nil {
		return respondError(c, h.logger, err, "store memory")
	}

	return c.Status(fiber.StatusCreated).JSON(fact)
}

// ListMemories handles GET /memory
func (h *MemoryHandler) ListMemories(c *fiber.Ctx) error {
	filter := &domain.MemoryFilter{
		MinImportance: parseQueryIntPtr(c, "minImportance"),
	}

	if s := c.Query("category"); s != "" {
		category := domain.MemoryCategory(s)
		if !category.IsValid() {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid category: "+s)
		}
		filter.Category = &category
	}

	p := ParsePagination(c, 100)
	filter.Limit = p.Limit
	filter.Offset = p.Offset

	list, err := h.memoryService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.logger, err, "list memories")
	}

	return c.JSON(list)
}

// GetMemory handles GET /memory/:id
func (h *MemoryHandler) GetMemory(c *fiber.Ctx) error {
	factID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	fact, err := h.memoryService.Get(c.Context(), factID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Memory not found")
		}
		return respondError(c, h.logger, err, "get memory")
	}

	return c.JSON(fact)
}

// ForgetMemory handles DELETE /memory/:id
func (h *MemoryHandler) ForgetMemory(c *fiber.Ctx) error {
	factID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	// The content goes into the audit trail, so fetch it before the
	// row disappears.
	fact, err := h.memoryService.Get(c.Context(), factID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Memory not found")
		}
		return respondError(c, h.logger, err, "forget memory")
	}

	if err := h.memoryService.Forget(c.Context(), factID); err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Memory not found")
		}
		return respondError(c, h.logger, err, "forget memory")
	}

	h.auditor.LogMemoryForgotten(c.Context(), factID, fact.Content, requestContext(c))

	return c.SendStatus(fiber.StatusNoContent)
}

// SearchMemories handles POST /memory/search. Search needs a query
// embedding, so unlike Remember it cannot degrade when the model
// server is down.
func (h *MemoryHandler) SearchMemories(c *fiber.Ctx) error {
	var input domain.MemorySearchInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	results, err := h.memoryService.Search(c.Context(), &input)
	if err != nil {
		if apperrors.IsUnavailable(err) {
			return errorResponse(c, fiber.StatusServiceUnavailable, "Model server is unavailable")
		}
		return respondError(c, h.logger, err, "search memories")
	}

	return c.JSON(fiber.Map{
		"data":  results,
		"count": len(results),
	})
}

// RegisterRoutes registers memory routes on the given router group.
func (h *MemoryHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	memory := r.Group("/memory")

	memory.Get("/", auth.RequireScope("memory:read"), h.ListMemories)
	memory.Post("/", auth.RequireScope("memory:write"), h.Remember)
	memory.Post("/search", auth.RequireScope("memory:read"), h.SearchMemories)
	memory.Get("/:id", auth.RequireScope("memory:read"), h.GetMemory)
	memory.Delete("/:id", auth.RequireScope("memory:delete"), h.ForgetMemory)
}
