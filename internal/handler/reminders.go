package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/middleware"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

// ReminderService is the surface of the reminder service the handler uses.
// Implemented by service.ReminderService.
type ReminderService interface {
	Create(ctx context.Context, input *domain.ReminderInput) (*domain.Reminder, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)
	Update(ctx context.Context, id uuid.UUID, input *domain.ReminderUpdateInput) (*domain.Reminder, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.ReminderFilter) (*domain.ReminderList, error)
	Snooze(ctx context.Context, id uuid.UUID, until time.Time) (*domain.Reminder, error)
	Complete(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)
}

// RemindersHandler handles reminder endpoints
type RemindersHandler struct {
	reminderService ReminderService
	auditor         AuditLogger
	logger          *zap.Logger
}

// NewRemindersHandler creates a new reminders handler
func NewRemindersHandler(reminderService ReminderService, auditor AuditLogger, logger *zap.Logger) *RemindersHandler {
	return &RemindersHandler{
		reminderService: reminderService,
		auditor:         auditor,
		logger:          logger,
	}
}

// ListReminders handles GET /reminders
func (h *RemindersHandler) ListReminders(c *fiber.Ctx) error {
	filter := &domain.ReminderFilter{
		DueFrom: parseQueryTime(c, "dueFrom"),
		DueTo:   parseQueryTime(c, "dueTo"),
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.ReminderStatus(statusStr)
		if !status.IsValid() {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid status: "+statusStr)
		}
		filter.Status = &status
	}

	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority := domain.ReminderPriority(priorityStr)
		if !priority.IsValid() {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid priority: "+priorityStr)
		}
		filter.Priority = &priority
	}

	p := ParsePagination(c, 100)
	filter.Limit = p.Limit
	filter.Offset = p.Offset

	list, err := h.reminderService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.logger, err, "list reminders")
	}

	return c.JSON(list)
}

// GetReminder handles GET /reminders/:id
func (h *RemindersHandler) GetReminder(c *fiber.Ctx) error {
	reminderID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	reminder, err := h.reminderService.Get(c.Context(), reminderID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Reminder not found")
		}
		return respondError(c, h.logger, err, "get reminder")
	}

	return c.JSON(reminder)
}

// CreateReminder handles POST /reminders
func (h *RemindersHandler) CreateReminder(c *fiber.Ctx) error {
	var input domain.ReminderInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	reminder, err := h.reminderService.Create(c.Context(), &input)
	if err != nil {
		return respondError(c, h.logger, err, "create reminder")
	}

	h.auditor.LogCreated(c.Context(), domain.AuditResourceReminder, reminder.ID, reminder.Title, requestContext(c))

	return c.Status(fiber.StatusCreated).JSON(reminder)
}

// UpdateReminder handles PATCH /reminders/:id
func (h *RemindersHandler) UpdateReminder(c *fiber.Ctx) error {
	reminderID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	var input domain.ReminderUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	reminder, err := h.reminderService.Update(c.Context(), reminderID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Reminder not found")
		}
		return respondError(c, h.logger, err, "update reminder")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceReminder, reminder.ID, reminder.Title, requestContext(c))

	return c.JSON(reminder)
}

// DeleteReminder handles DELETE /reminders/:id
func (h *RemindersHandler) DeleteReminder(c *fiber.Ctx) error {
	reminderID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	reminder, err := h.reminderService.Get(c.Context(), reminderID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Reminder not found")
		}
		return respondError(c, h.logger, err, "delete reminder")
	}

	if err := h.reminderService.Delete(c.Context(), reminderID); err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Reminder not found")
		}
		return respondError(c, h.logger, err, "delete reminder")
	}

	h.auditor.LogDeleted(c.Context(), domain.AuditResourceReminder, reminderID, reminder.Title, requestContext(c))

	return c.SendStatus(fiber.StatusNoContent)
}

// SnoozeReminder handles POST /reminders/:id/snooze
func (h *RemindersHandler) SnoozeReminder(c *fiber.Ctx) error {
	reminderID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	var input struct {
		Until time.Time `json:"until"`
	}
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	if input.Until.IsZero() {
		return errorResponse(c, fiber.StatusBadRequest, "until is required")
	}

	reminder, err := h.reminderService.Snooze(c.Context(), reminderID, input.Until)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Reminder not found")
		}
		return respondError(c, h.logger, err, "snooze reminder")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceReminder, reminder.ID, reminder.Title, requestContext(c))

	return c.JSON(reminder)
}

// CompleteReminder handles POST /reminders/:id/complete
func (h *RemindersHandler) CompleteReminder(c *fiber.Ctx) error {
	reminderID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	reminder, err := h.reminderService.Complete(c.Context(), reminderID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Reminder not found")
		}
		return respondError(c, h.logger, err, "complete reminder")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceReminder, reminder.ID, reminder.Title, requestContext(c))

	return c.JSON(reminder)
}

// RegisterRoutes registers reminder routes on the given router group.
func (h *RemindersHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	reminders := r.Group("/reminders")

	reminders.Get("/", auth.RequireScope("reminders:read"), h.ListReminders)
	reminders.Post("/", auth.RequireScope("reminders:write"), h.CreateReminder)
	reminders.Get("/:id", auth.RequireScope("reminders:read"), h.GetReminder)
	reminders.Patch("/:id", auth.RequireScope("reminders:write"), h.UpdateReminder)
	reminders.Delete("/:id", auth.RequireScope("reminders:write"), h.DeleteReminder)
	reminders.Post("/:id/snooze", auth.RequireScope("reminders:write"), h.SnoozeReminder)
	reminders.Post("/:id/complete", auth.RequireScope("reminders:write"), h.CompleteReminder)
}
