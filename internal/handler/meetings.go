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

// MeetingService is the surface of the meeting service the handler uses.
// Implemented by service.MeetingService.
type MeetingService interface {
	Create(ctx context.Context, input *domain.MeetingInput) (*domain.Meeting, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Meeting, error)
	Update(ctx context.Context, id uuid.UUID, input *domain.MeetingUpdateInput) (*domain.Meeting, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.MeetingFilter) (*domain.MeetingList, error)
	ListUpcoming(ctx context.Context, window time.Duration) ([]domain.Meeting, error)
	Complete(ctx context.Context, id uuid.UUID, notes string) (*domain.Meeting, error)
	Summarize(ctx context.Context, id uuid.UUID) (*domain.Meeting, error)
}

// MeetingScheduler queues meeting model work for the background worker.
type MeetingScheduler interface {
	SummarizeMeeting(ctx context.Context, meetingID uuid.UUID) error
}

// MeetingsHandler handles meeting endpoints
type MeetingsHandler struct {
	meetingService MeetingService
	auditor        AuditLogger
	summaries      MeetingScheduler
	logger         *zap.Logger
}

// NewMeetingsHandler creates a new meetings handler
func NewMeetingsHandler(meetingService MeetingService, auditor AuditLogger, logger *zap.Logger) *MeetingsHandler {
	return &MeetingsHandler{
		meetingService: meetingService,
		auditor:        auditor,
		logger:         logger,
	}
}

// SetScheduler enables background summarization after a meeting is
// completed with notes. Without one, summaries stay on demand via the
// summarize endpoint.
func (h *MeetingsHandler) SetScheduler(s MeetingScheduler) {
	h.summaries = s
}

// ListMeetings handles GET /meetings
func (h *MeetingsHandler) ListMeetings(c *fiber.Ctx) error {
	filter := &domain.MeetingFilter{
		From: parseQueryTime(c, "from"),
		To:   parseQueryTime(c, "to"),
	}

	if projectIDStr := c.Query("projectId"); projectIDStr != "" {
		projectID, err := uuid.Parse(projectIDStr)
		if err != nil {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid project ID")
		}
		filter.ProjectID = &projectID
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.MeetingStatus(statusStr)
		if !status.IsValid() {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid status: "+statusStr)
		}
		filter.Status = &status
	}

	p := ParsePagination(c, 100)
	filter.Limit = p.Limit
	filter.Offset = p.Offset

	list, err := h.meetingService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.logger, err, "list meetings")
	}

	return c.JSON(list)
}

// ListUpcoming handles GET /meetings/upcoming. The window defaults to
// the next 24 hours.
func (h *MeetingsHandler) ListUpcoming(c *fiber.Ctx) error {
	window := 24 * time.Hour
	if windowStr := c.Query("window"); windowStr != "" {
		parsed, err := time.ParseDuration(windowStr)
		if err != nil || parsed <= 0 {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid window: "+windowStr)
		}
		window = parsed
	}

	meetings, err := h.meetingService.ListUpcoming(c.Context(), window)
	if err != nil {
		return respondError(c, h.logger, err, "list upcoming meetings")
	}

	return c.JSON(fiber.Map{
		"data": meetings,
	})
}

// GetMeeting handles GET /meetings/:id
func (h *MeetingsHandler) GetMeeting(c *fiber.Ctx) error {
	meetingID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	meeting, err := h.meetingService.Get(c.Context(), meetingID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Meeting not found")
		}
		return respondError(c, h.logger, err, "get meeting")
	}

	return c.JSON(meeting)
}

// CreateMeeting handles POST /meetings
func (h *MeetingsHandler) CreateMeeting(c *fiber.Ctx) error {
	var input domain.MeetingInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	meeting, err := h.meetingService.Create(c.Context(), &input)
	if err != nil {
		return respondError(c, h.logger, err, "create meeting")
	}

	h.auditor.LogCreated(c.Context(), domain.AuditResourceMeeting, meeting.ID, meeting.Title, requestContext(c))

	return c.Status(fiber.StatusCreated).JSON(meeting)
}

// UpdateMeeting handles PATCH /meetings/:id
func (h *MeetingsHandler) UpdateMeeting(c *fiber.Ctx) error {
	meetingID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	var input domain.MeetingUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	meeting, err := h.meetingService.Update(c.Context(), meetingID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Meeting not found")
		}
		return respondError(c, h.logger, err, "update meeting")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceMeeting, meeting.ID, meeting.Title, requestContext(c))

	return c.JSON(meeting)
}

// DeleteMeeting handles DELETE /meetings/:id
func (h *MeetingsHandler) DeleteMeeting(c *fiber.Ctx) error {
	meetingID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	meeting, err := h.meetingService.Get(c.Context(), meetingID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Meeting not found")
		}
		return respondError(c, h.logger, err, "delete meeting")
	}

	if err := h.meetingService.Delete(c.Context(), meetingID); err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Meeting not found")
		}
		return respondError(c, h.logger, err, "delete meeting")
	}

	h.auditor.LogDeleted(c.Context(), domain.AuditResourceMeeting, meetingID, meeting.Title, requestContext(c))

	return c.SendStatus(fiber.StatusNoContent)
}

// CompleteMeeting handles POST /meetings/:id/complete
func (h *MeetingsHandler) CompleteMeeting(c *fiber.Ctx) error {
	meetingID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	var input struct {
		Notes string `json:"notes"`
	}
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	meeting, err := h.meetingService.Complete(c.Context(), meetingID, input.Notes)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Meeting not found")
		}
		return respondError(c, h.logger, err, "complete meeting")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceMeeting, meeting.ID, meeting.Title, requestContext(c))

	if h.summaries != nil && meeting.Summary == "" && meeting.Notes != "" {
		if err := h.summaries.SummarizeMeeting(c.Context(), meeting.ID); err != nil {
			h.logger.Warn("failed to schedule summary",
				zap.String("meetingId", meeting.ID.String()),
				zap.Error(err),
			)
		}
	}

	return c.JSON(meeting)
}

// SummarizeMeeting handles POST /meetings/:id/summarize
func (h *MeetingsHandler) SummarizeMeeting(c *fiber.Ctx) error {
	meetingID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	meeting, err := h.meetingService.Summarize(c.Context(), meetingID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Meeting not found")
		}
		if apperrors.IsUnavailable(err) {
			return errorResponse(c, fiber.StatusServiceUnavailable, "Model server is unavailable")
		}
		return respondError(c, h.logger, err, "summarize meeting")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceMeeting, meeting.ID, meeting.Title, requestContext(c))

	return c.JSON(meeting)
}

// RegisterRoutes registers meeting routes on the given router group.
func (h *MeetingsHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	meetings := r.Group("/meetings")

	meetings.Get("/", auth.RequireScope("meetings:read"), h.ListMeetings)
	meetings.Post("/", auth.RequireScope("meetings:write"), h.CreateMeeting)
	meetings.Get("/upcoming", auth.RequireScope("meetings:read"), h.ListUpcoming)
	meetings.Get("/:id", auth.RequireScope("meetings:read"), h.GetMeeting)
	meetings.Patch("/:id", auth.RequireScope("meetings:write"), h.UpdateMeeting)
	meetings.Delete("/:id", auth.RequireScope("meetings:write"), h.DeleteMeeting)
	meetings.Post("/:id/complete", auth.RequireScope("meetings:write"), h.CompleteMeeting)
	meetings.Post("/:id/summarize", auth.RequireScope("meetings:write"), h.SummarizeMeeting)
}
