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

// TrainingService is the surface of the training service the handler
// uses. Implemented by service.TrainingService.
type TrainingService interface {
	CreateExample(ctx context.Context, input *domain.TrainingExampleInput) (*domain.TrainingExample, error)
	CaptureFromMessages(ctx context.Context, conversationID, userMessageID, assistantMessageID uuid.UUID) (*domain.TrainingExample, error)
	GetExample(ctx context.Context, id uuid.UUID) (*domain.TrainingExample, error)
	UpdateExample(ctx context.Context, id uuid.UUID, input *domain.TrainingExampleUpdateInput) (*domain.TrainingExample, error)
	DeleteExample(ctx context.Context, id uuid.UUID) error
	ListExamples(ctx context.Context, filter *domain.TrainingExampleFilter) (*domain.TrainingExampleList, error)
	Approve(ctx context.Context, id uuid.UUID) (*domain.TrainingExample, error)
	Reject(ctx context.Context, id uuid.UUID) (*domain.TrainingExample, error)
	ExportDataset(ctx context.Context, name string) (*domain.TrainingRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (*domain.TrainingRun, error)
	DatasetURL(ctx context.Context, id uuid.UUID) (string, error)
	ListRuns(ctx context.Context, limit int) ([]domain.TrainingRun, error)
	UpdateRunStatus(ctx context.Context, id uuid.UUID, input *domain.TrainingRunStatusInput) (*domain.TrainingRun, error)
	Stats(ctx context.Context) (*domain.TrainingStats, error)
}

// TrainingAuditor extends the lifecycle auditor with the dataset
// export event. Implemented by service.AuditService.
type TrainingAuditor interface {
	AuditLogger
	LogDatasetExported(ctx context.Context, runID uuid.UUID, runName, datasetKey string, exampleCount int)
}

// TrainingHandler handles training data curation endpoints
type TrainingHandler struct {
	trainingService TrainingService
	auditor         TrainingAuditor
	logger          *zap.Logger
}

// NewTrainingHandler creates a new training handler
func NewTrainingHandler(trainingService TrainingService, auditor TrainingAuditor, logger *zap.Logger) *TrainingHandler {
	return &TrainingHandler{
		trainingService: trainingService,
		auditor:         auditor,
		logger:          logger,
	}
}

// exampleAuditName clips the prompt to a short audit trail label.
func exampleAuditName(ex *domain.TrainingExample) string {
	const max = 80
	runes := []rune(ex.Prompt)
	if len(runes) <= max {
		return ex.Prompt
	}
	return string(runes[:max]) + "..."
}

// CreateExample handles POST /training/examples
func (h *TrainingHandler) CreateExample(c *fiber.Ctx) error {
	var input domain.TrainingExampleInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	example, err := h.trainingService.CreateExample(c.Context(), &input)
	if err != nil {
		return respondError(c, h.logger, err, "create training example")
	}

	h.auditor.LogCreated(c.Context(), domain.AuditResourceTraining, example.ID, exampleAuditName(example), requestContext(c))

	return c.Status(fiber.StatusCreated).JSON(example)
}

type captureExampleRequest struct {
	ConversationID     uuid.UUID `json:"conversationId"`
	UserMessageID      uuid.UUID `json:"userMessageId"`
	AssistantMessageID uuid.UUID `json:"assistantMessageId"`
}

// CaptureExample handles POST /training/examples/capture. It turns a
// stored user/assistant exchange into a candidate example.
func (h *TrainingHandler) CaptureExample(c *fiber.Ctx) error {
	var req captureExampleRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if req.ConversationID == uuid.Nil || req.UserMessageID == uuid.Nil || req.AssistantMessageID == uuid.Nil {
		return errorResponse(c, fiber.StatusBadRequest, "conversationId, userMessageId and assistantMessageId are required")
	}

	example, err := h.trainingService.CaptureFromMessages(c.Context(), req.ConversationID, req.UserMessageID, req.AssistantMessageID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Message not found")
		}
		return respondError(c, h.logger, err, "capture training example")
	}

	h.auditor.LogCreated(c.Context(), domain.AuditResourceTraining, example.ID, exampleAuditName(example), requestContext(c))

	return c.Status(fiber.StatusCreated).JSON(example)
}

// ListExamples handles GET /training/examples
func (h *TrainingHandler) ListExamples(c *fiber.Ctx) error {
	filter := &domain.TrainingExampleFilter{
		ConversationID: parseQueryUUID(c, "conversationId"),
		MinQuality:     parseQueryIntPtr(c, "minQuality"),
	}

	if s := c.Query("status"); s != "" {
		status := domain.TrainingExampleStatus(s)
		if !status.IsValid() {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid status: "+s)
		}
		filter.Status = &status
	}

	if s := c.Query("source"); s != "" {
		source := domain.TrainingSource(s)
		if !source.IsValid() {
			return errorResponse(c, fiber.StatusBadRequest, "Invalid source: "+s)
		}
		filter.Source = &source
	}

	p := ParsePagination(c, 100)
	filter.Limit = p.Limit
	filter.Offset = p.Offset

	list, err := h.trainingService.ListExamples(c.Context(), filter)
	if err != nil {
		return respondError(c, h.logger, err, "list training examples")
	}

	return c.JSON(list)
}

// GetExample handles GET /training/examples/:id
func (h *TrainingHandler) GetExample(c *fiber.Ctx) error {
	exampleID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	example, err := h.trainingService.GetExample(c.Context(), exampleID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Training example not found")
		}
		return respondError(c, h.logger, err, "get training example")
	}

	return c.JSON(example)
}

// UpdateExample handles PATCH /training/examples/:id
func (h *TrainingHandler) UpdateExample(c *fiber.Ctx) error {
	exampleID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	var input domain.TrainingExampleUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	example, err := h.trainingService.UpdateExample(c.Context(), exampleID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Training example not found")
		}
		return respondError(c, h.logger, err, "update training example")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceTraining, example.ID, exampleAuditName(example), requestContext(c))

	return c.JSON(example)
}

// DeleteExample handles DELETE /training/examples/:id
func (h *TrainingHandler) DeleteExample(c *fiber.Ctx) error {
	exampleID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	example, err := h.trainingService.GetExample(c.Context(), exampleID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Training example not found")
		}
		return respondError(c, h.logger, err, "delete training example")
	}

	if err := h.trainingService.DeleteExample(c.Context(), exampleID); err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Training example not found")
		}
		return respondError(c, h.logger, err, "delete training example")
	}

	h.auditor.LogDeleted(c.Context(), domain.AuditResourceTraining, exampleID, exampleAuditName(example), requestContext(c))

	return c.SendStatus(fiber.StatusNoContent)
}

// ApproveExample handles POST /training/examples/:id/approve
func (h *TrainingHandler) ApproveExample(c *fiber.Ctx) error {
	exampleID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	example, err := h.trainingService.Approve(c.Context(), exampleID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Training example not found")
		}
		return respondError(c, h.logger, err, "approve training example")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceTraining, example.ID, exampleAuditName(example), requestContext(c))

	return c.JSON(example)
}

// RejectExample handles POST /training/examples/:id/reject
func (h *TrainingHandler) RejectExample(c *fiber.Ctx) error {
	exampleID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	example, err := h.trainingService.Reject(c.Context(), exampleID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Training example not found")
		}
		return respondError(c, h.logger, err, "reject training example")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceTraining, example.ID, exampleAuditName(example), requestContext(c))

	return c.JSON(example)
}

type exportDatasetRequest struct {
	Name string `json:"name"`
}

// ExportDataset handles POST /training/export
func (h *TrainingHandler) ExportDataset(c *fiber.Ctx) error {
	var req exportDatasetRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	run, err := h.trainingService.ExportDataset(c.Context(), req.Name)
	if err != nil {
		return respondError(c, h.logger, err, "export dataset")
	}

	h.auditor.LogDatasetExported(c.Context(), run.ID, run.Name, run.DatasetKey, run.ExampleCount)

	return c.Status(fiber.StatusCreated).JSON(run)
}

// ListRuns handles GET /training/runs
func (h *TrainingHandler) ListRuns(c *fiber.Ctx) error {
	limit := parseQueryInt(c, "limit", 20)

	runs, err := h.trainingService.ListRuns(c.Context(), limit)
	if err != nil {
		return respondError(c, h.logger, err, "list training runs")
	}

	return c.JSON(fiber.Map{"data": runs})
}

// GetRun handles GET /training/runs/:id
func (h *TrainingHandler) GetRun(c *fiber.Ctx) error {
	runID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	run, err := h.trainingService.GetRun(c.Context(), runID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Training run not found")
		}
		return respondError(c, h.logger, err, "get training run")
	}

	return c.JSON(run)
}

// GetRunDataset handles GET /training/runs/:id/dataset. It returns a
// time-limited download link for the run's exported JSONL.
func (h *TrainingHandler) GetRunDataset(c *fiber.Ctx) error {
	runID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	url, err := h.trainingService.DatasetURL(c.Context(), runID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Dataset not found")
		}
		return respondError(c, h.logger, err, "presign dataset")
	}

	return c.JSON(fiber.Map{"url": url})
}

// UpdateRunStatus handles PATCH /training/runs/:id/status. Called by
// the out-of-band training script as the run progresses.
func (h *TrainingHandler) UpdateRunStatus(c *fiber.Ctx) error {
	runID, ok := parsePathID(c)
	if !ok {
		return nil
	}

	var input domain.TrainingRunStatusInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}

	run, err := h.trainingService.UpdateRunStatus(c.Context(), runID, &input)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return errorResponse(c, fiber.StatusNotFound, "Training run not found")
		}
		return respondError(c, h.logger, err, "update training run status")
	}

	h.auditor.LogUpdated(c.Context(), domain.AuditResourceTraining, run.ID, run.Name, requestContext(c))

	return c.JSON(run)
}

// GetStats handles GET /training/stats
func (h *TrainingHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.trainingService.Stats(c.Context())
	if err != nil {
		return respondError(c, h.logger, err, "get training stats")
	}

	return c.JSON(stats)
}

// RegisterRoutes registers training routes on the given router group.
func (h *TrainingHandler) RegisterRoutes(r fiber.Router, auth *middleware.AuthMiddleware) {
	training := r.Group("/training")

	training.Get("/stats", auth.RequireScope("training:read"), h.GetStats)
	training.Post("/export", auth.RequireScope("training:write"), h.ExportDataset)

	training.Get("/examples", auth.RequireScope("training:read"), h.ListExamples)
	training.Post("/examples", auth.RequireScope("training:write"), h.CreateExample)
	training.Post("/examples/capture", auth.RequireScope("training:write"), h.CaptureExample)
	training.Get("/examples/:id", auth.RequireScope("training:read"), h.GetExample)
	training.Patch("/examples/:id", auth.RequireScope("training:write"), h.UpdateExample)
	training.Delete("/examples/:id", auth.RequireScope("training:write"), h.DeleteExample)
	training.Post("/examples/:id/approve", auth.RequireScope("training:write"), h.ApproveExample)
	training.Post("/examples/:id/reject", auth.RequireScope("training:write"), h.RejectExample)

	training.Get("/runs", auth.RequireScope("training:read"), h.ListRuns)
	training.Get("/runs/:id", auth.RequireScope("training:read"), h.GetRun)
	training.Get("/runs/:id/dataset", auth.RequireScope("training:read"), h.GetRunDataset)
	training.Patch("/runs/:id/status", auth.RequireScope("training:write"), h.UpdateRunStatus)
}
