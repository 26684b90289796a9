package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/middleware"
)

// DashboardService aggregates the front-page numbers. Implemented by
// service.DashboardService.
type DashboardService interface {
	Stats(ctx context.Context) (*domain.DashboardStats, error)
}

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService DashboardService
	logger           *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// GetStats handles GET /dashboard/stats
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.dashboardService.Stats(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "get dashboard stats")
	}

	return c.JSON(stats)
}

// RegisterRoutes registers dashboard routes on the given router group.
func (h *DashboardHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	dashboard := r.Group("/dashboard")

	dashboard.Get("/stats", auth.RequireScope("admin:read"), h.GetStats)
}
