package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/middleware"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
	"github.com/angelahq/angela/internal/pkg/pagination"
)

// ConversationService is the surface of the conversation service the
// handler uses. Implemented by service.ConversationService.
type ConversationService interface {
	Create(ctx context.Context, input *domain.ConversationInput) (*domain.Conversation, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	Update(ctx context.Context, id uuid.UUID, input *domain.ConversationUpdateInput) (*domain.Conversation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.ConversationFilter) (*domain.ConversationList, error)
	Messages(ctx context.Context, conversationID uuid.UUID, limit int, cursor string) (*pagination.Page[domain.Message], error)
	SendMessage(ctx context.Context, conversationID uuid.UUID, input *domain.SendMessageInput) (*domain.ChatReply, error)
}

// ConversationsHandler handles conversation and chat endpoints
type ConversationsHandler struct {
	convService ConversationService
	auditor     AuditLogger
	logger      *zap.Logger
}

// NewConversationsHandler creates a new conversations handler
func NewConversationsHandler(convService ConversationService, auditor AuditLogger, logger *zap.Logger) *ConversationsHandler {
	return &ConversationsHandler{
		convService: convService,
		auditor:     auditor,
		logger:      logger,
	}
}

// ListConversations handles GET /conversations
func (h *ConversationsHandler) ListConversations(c *fiber.Ctx) error {
	filter := &domain.ConversationFilter{
		Archived: parseQueryBool(c, "archived"),
		Search:   parseQueryString(c, "search"),
		Cursor:   c.Query("cursor"),
	}

	p := ParsePagination(c, 100)
	filter.Limit = p.Limit

	list, err := h.convService.List(c.Context(), filter)
	if err != nil {
		return respondError(c, h.logger, err, "list conversations")
	}

	return c.JSON(list)
}

// GetConversation handles GET /conversations/:id
func (h *ConversationsHandler) GetConversation(c *fiber.Ctx) error {
	conversationID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	conv, err := h.convService.Get(c.Context(), conversationID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Conversation not found")
		}
		return respondError(c, h.logger, err, "get conversation")
	}

	return c.JSON(conv)
}

// CreateConversation handles POST /conversations
func (h *ConversationsHandler) CreateConversation(c *fiber.Ctx) error {
	var input domain.ConversationInput
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	conv, err := h.convService.Create(c.Context(), &input)
	if err != nil {
		return respondError(c, h.logger, err, "create conversation")
	}

	h.auditor.LogCreated(c.Context(), domain.AuditResourceConversation, conv.ID, conv.Title, requestContext(c))

	return c.Status(fiber.StatusCreated).JSON(conv)
}

// UpdateConversation handles PATCH /conversations/:id
func (h *ConversationsHandler) UpdateConversation(c *fiber.Ctx) error {
	conversationID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	var input domain.ConversationUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	conv, err := h.convService.Update(c.Context(), conversationID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Conversation not found")
		}
		return respondError(c, h.logger, err, "update conversation")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceConversation, conv.ID, conv.Title, requestContext(c))

	return c.JSON(conv)
}

// DeleteConversation handles DELETE /conversations/:id
func (h *ConversationsHandler) DeleteConversation(c *fiber.Ctx) error {
	conversationID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	conv, err := h.convService.Get(c.Context(), conversationID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Conversation not found")
		}
		return respondError(c, h.logger, err, "delete conversation")
	}

	if err := h.convService.Delete(c.Context(), conversationID); err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Conversation not found")
		}
		return respondError(c, h.logger, err, "delete conversation")
	}

	h.auditor.LogDeleted(c.Context(), domain.AuditResourceConversation, conversationID, conv.Title, requestContext(c))

	return c.SendStatus(fiber.StatusNoContent)
}

// ListMessages handles GET /conversations/:id/messages
func (h *ConversationsHandler) ListMessages(c *fiber.Ctx) error {
	conversationID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	limit := parseQueryInt(c, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	page, err := h.convService.Messages(c.Context(), conversationID, limit, c.Query("cursor"))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Conversation not found")
		}
		return respondError(c, h.logger, err, "list messages")
	}

	return c.JSON(page)
}

// SendMessage handles POST /conversations/:id/messages. A model
// failure is a 503 and the user message is already stored, so the
// client can retry the turn without re-sending history.
func (h *ConversationsHandler) SendMessage(c *fiber.Ctx) error {
	conversationID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	var input domain.SendMessageInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	reply, err := h.convService.SendMessage(c.Context(), conversationID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Conversation not found")
		}
		if apperrors.IsUnavailable(err) {
			return errorResponse(c, fiber.StatusServiceUnavailable, "Model server is unavailable; your message was saved")
		}
		return respondError(c, h.logger, err, "send message")
	}

	return c.Status(fiber.StatusCreated).JSON(reply)
}

// RegisterRoutes registers conversation routes on the given router group.
func (h *ConversationsHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	conversations := r.Group("/conversations")

	conversations.Get("/", auth.RequireScope("chat:read"), h.ListConversations)
	conversations.Post("/", auth.RequireScope("chat:write"), h.CreateConversation)
	conversations.Get("/:id", auth.RequireScope("chat:read"), h.GetConversation)
	conversations.Patch("/:id", auth.RequireScope("chat:write"), h.UpdateConversation)
	conversations.Delete("/:id", auth.RequireScope("chat:write"), h.DeleteConversation)
	conversations.Get("/:id/messages", auth.RequireScope("chat:read"), h.ListMessages)
	conversations.Post("/:id/messages", auth.RequireScope("chat:write"), h.SendMessage)
}
