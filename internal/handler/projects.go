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

// ProjectService is the surface of the project service the handler uses.
// Implemented by service.ProjectService.
type ProjectService interface {
	Create(ctx context.Context, input *domain.ProjectInput) (*domain.Project, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Project, error)
	Update(ctx context.Context, id uuid.UUID, input *domain.ProjectUpdateInput) (*domain.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.ProjectFilter) (*domain.ProjectList, error)
}

// ProjectsHandler handles project endpoints
type ProjectsHandler struct {
	projectService ProjectService
	auditor        AuditLogger
	logger         *zap.Logger
}

// NewProjectsHandler creates a new projects handler
func NewProjectsHandler(projectService ProjectService, auditor AuditLogger, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		projectService: projectService,
		auditor:        auditor,
		logger:         logger,
	}
}

// ListProjects handles GET /projects
func (h *ProjectsHandler) ListProjects(c *fiber.Ctx) error {
	filter := &domain.ProjectFilter{
		Tag:    parseQueryString(c, "tag"),
		Search: parseQueryString(c, "search"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.ProjectStatus(statusStr)
		if !status.IsValid() {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid status: "+statusStr)
		}
		filter.Status = &status
	}

	p := ParsePagination(c, 100)
	filter.Limit = p.Limit
	filter.Offset = p.Offset

	list, err := h.projectService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.logger, err, "list projects")
	}

	return c.JSON(list)
}

// GetProject handles GET /projects/:id
func (h *ProjectsHandler) GetProject(c *fiber.Ctx) error {
	projectID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	project, err := h.projectService.Get(c.Context(), projectID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Project not found")
		}
		return respondError(c, h.logger, err, "get project")
	}

	return c.JSON(project)
}

// GetProjectBySlug handles GET /projects/slug/:slug
func (h *ProjectsHandler) GetProjectBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return errorResponse(c, fiber.StatusBadRequest, "Slug is required")
	}

	project, err := h.projectService.GetBySlug(c.Context(), slug)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Project not found")
		}
		return respondError(c, h.logger, err, "get project")
	}

	return c.JSON(project)
}

// CreateProject handles POST /projects
func (h *ProjectsHandler) CreateProject(c *fiber.Ctx) error {
	var input domain.ProjectInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	project, err := h.projectService.Create(c.Context(), &input)
	if err != nil {
		return respondError(c, h.logger, err, "create project")
	}

	h.auditor.LogCreated(c.Context(), domain.AuditResourceProject, project.ID, project.Name, requestContext(c))

	return c.Status(fiber.StatusCreated).JSON(project)
}

// UpdateProject handles PATCH /projects/:id
func (h *ProjectsHandler) UpdateProject(c *fiber.Ctx) error {
	projectID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	var input domain.ProjectUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	project, err := h.projectService.Update(c.Context(), projectID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Project not found")
		}
		return respondError(c, h.logger, err, "update project")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceProject, project.ID, project.Name, requestContext(c))

	return c.JSON(project)
}

// DeleteProject handles DELETE /projects/:id
func (h *ProjectsHandler) DeleteProject(c *fiber.Ctx) error {
	projectID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	project, err := h.projectService.Get(c.Context(), projectID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Project not found")
		}
		return respondError(c, h.logger, err, "delete project")
	}

	if err := h.projectService.Delete(c.Context(), projectID); err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Project not found")
		}
		return respondError(c, h.logger, err, "delete project")
	}

	h.auditor.LogDeleted(c.Context(), domain.AuditResourceProject, projectID, project.Name, requestContext(c))

	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterRoutes registers project routes on the given router group.
func (h *ProjectsHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	projects := r.Group("/projects")

	projects.Get("/", auth.RequireScope("projects:read"), h.ListProjects)
	projects.Post("/", auth.RequireScope("projects:write"), h.CreateProject)
	projects.Get("/slug/:slug", auth.RequireScope("projects:read"), h.GetProjectBySlug)
	projects.Get("/:id", auth.RequireScope("projects:read"), h.GetProject)
	projects.Patch("/:id", auth.RequireScope("projects:write"), h.UpdateProject)
	projects.Delete("/:id", auth.RequireScope("projects:write"), h.DeleteProject)
}
