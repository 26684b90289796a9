package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/domain"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
	"github.com/angelahq/angela/internal/validator"
)

// TrainingRepository defines training example and run repository operations
type TrainingRepository interface {
	CreateExample(ctx context.Context, example *domain.TrainingExample) error
	GetExampleByID(ctx context.Context, id uuid.UUID) (*domain.TrainingExample, error)
	UpdateExample(ctx context.Context, example *domain.TrainingExample) error
	DeleteExample(ctx context.Context, id uuid.UUID) error
	ListExamples(ctx context.Context, filter *domain.TrainingExampleFilter) (*domain.TrainingExampleList, error)
	ListApproved(ctx context.Context) ([]domain.TrainingExample, error)
	MarkExported(ctx context.Context, run *domain.TrainingRun, exampleIDs []uuid.UUID) error
	GetRunByID(ctx context.Context, id uuid.UUID) (*domain.TrainingRun, error)
	UpdateRun(ctx context.Context, run *domain.TrainingRun) error
	ListRuns(ctx context.Context, limit int) ([]domain.TrainingRun, error)
	Stats(ctx context.Context) (*domain.TrainingStats, error)
}

// MessageReader fetches chat messages for training capture
type MessageReader interface {
	GetMessageByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
}

// ObjectStore is the artifact storage surface dataset export needs
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// datasetURLExpiry bounds how long a presigned dataset link stays valid.
const datasetURLExpiry = 15 * time.Minute

// TrainingService curates LoRA training examples and exports datasets.
// Runs are tracked here but trained out-of-band on the GPU box.
type TrainingService struct {
	trainingRepo TrainingRepository
	messages     MessageReader
	store        ObjectStore
	cfg          config.TrainingConfig
	persona      string
	logger       *zap.Logger
}

// NewTrainingService creates a new training service
func NewTrainingService(trainingRepo TrainingRepository, messages MessageReader, store ObjectStore, cfg config.TrainingConfig, chatCfg config.ChatConfig, logger *zap.Logger) *TrainingService {
	return &TrainingService{
		trainingRepo: trainingRepo,
		messages:     messages,
		store:        store,
		cfg:          cfg,
		persona:      chatCfg.SystemPersona,
		logger:       logger,
	}
}

// CreateExample adds a training example into the curation queue
func (s *TrainingService) CreateExample(ctx context.Context, input *domain.TrainingExampleInput) (*domain.TrainingExample, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	source := input.Source
	if source == "" {
		source = domain.TrainingSourceManual
	}
	if !source.IsValid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid source %q", source))
	}

	now := time.Now()
	example := &domain.TrainingExample{
		ID:             uuid.New(),
		Prompt:         input.Prompt,
		Response:       input.Response,
		SystemPrompt:   input.SystemPrompt,
		Source:         source,
		ConversationID: input.ConversationID,
		Status:         domain.TrainingExampleStatusCandidate,
		Quality:        input.Quality,
		Tags:           input.Tags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.trainingRepo.CreateExample(ctx, example); err != nil {
		return nil, fmt.Errorf("failed to create example: %w", err)
	}

	return example, nil
}

// CaptureFromMessages turns one chat exchange into a candidate example
func (s *TrainingService) CaptureFromMessages(ctx context.Context, conversationID, userMessageID, assistantMessageID uuid.UUID) (*domain.TrainingExample, error) {
	userMsg, err := s.messages.GetMessageByID(ctx, userMessageID)
	if err != nil {
		return nil, err
	}
	assistantMsg, err := s.messages.GetMessageByID(ctx, assistantMessageID)
	if err != nil {
		return nil, err
	}

	if userMsg.Role != domain.MessageRoleUser || assistantMsg.Role != domain.MessageRoleAssistant {
		return nil, apperrors.Validation("capture needs a user message and an assistant reply")
	}
	if strings.TrimSpace(userMsg.Content) == "" || strings.TrimSpace(assistantMsg.Content) == "" {
		return nil, apperrors.Validation("cannot capture an empty exchange")
	}

	now := time.Now()
	example := &domain.TrainingExample{
		ID:             uuid.New(),
		Prompt:         userMsg.Content,
		Response:       assistantMsg.Content,
		SystemPrompt:   s.persona,
		Source:         domain.TrainingSourceConversation,
		ConversationID: &conversationID,
		Status:         domain.TrainingExampleStatusCandidate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.trainingRepo.CreateExample(ctx, example); err != nil {
		return nil, fmt.Errorf("failed to capture example: %w", err)
	}

	return example, nil
}

// GetExample retrieves a training example by ID
func (s *TrainingService) GetExample(ctx context.Context, id uuid.UUID) (*domain.TrainingExample, error) {
	return s.trainingRepo.GetExampleByID(ctx, id)
}

// UpdateExample edits an example still in curation
func (s *TrainingService) UpdateExample(ctx context.Context, id uuid.UUID, input *domain.TrainingExampleUpdateInput) (*domain.TrainingExample, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	example, err := s.trainingRepo.GetExampleByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if example.Status == domain.TrainingExampleStatusExported {
		return nil, apperrors.Conflict("exported examples are frozen")
	}

	if input.Prompt != nil {
		example.Prompt = *input.Prompt
	}
	if input.Response != nil {
		example.Response = *input.Response
	}
	if input.SystemPrompt != nil {
		example.SystemPrompt = *input.SystemPrompt
	}
	if input.Quality != nil {
		example.Quality = *input.Quality
	}
	if input.Tags != nil {
		example.Tags = input.Tags
	}
	example.UpdatedAt = time.Now()

	if err := s.trainingRepo.UpdateExample(ctx, example); err != nil {
		return nil, fmt.Errorf("failed to update example: %w", err)
	}

	return example, nil
}

// DeleteExample removes an example from the curation queue
func (s *TrainingService) DeleteExample(ctx context.Context, id uuid.UUID) error {
	example, err := s.trainingRepo.GetExampleByID(ctx, id)
	if err != nil {
		return err
	}
	if example.Status == domain.TrainingExampleStatusExported {
		return apperrors.Conflict("exported examples are frozen")
	}

	return s.trainingRepo.DeleteExample(ctx, id)
}

// ListExamples retrieves examples matching the filter
func (s *TrainingService) ListExamples(ctx context.Context, filter *domain.TrainingExampleFilter) (*domain.TrainingExampleList, error) {
	return s.trainingRepo.ListExamples(ctx, filter)
}

// Approve moves an example into the export pool
func (s *TrainingService) Approve(ctx context.Context, id uuid.UUID) (*domain.TrainingExample, error) {
	return s.setExampleStatus(ctx, id, domain.TrainingExampleStatusApproved)
}

// Reject drops an example from curation without deleting it
func (s *TrainingService) Reject(ctx context.Context, id uuid.UUID) (*domain.TrainingExample, error) {
	return s.setExampleStatus(ctx, id, domain.TrainingExampleStatusRejected)
}

func (s *TrainingService) setExampleStatus(ctx context.Context, id uuid.UUID, status domain.TrainingExampleStatus) (*domain.TrainingExample, error) {
	example, err := s.trainingRepo.GetExampleByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if example.Status == domain.TrainingExampleStatusExported {
		return nil, apperrors.Conflict("exported examples are frozen")
	}
	if example.Status == status {
		return example, nil
	}

	example.Status = status
	example.UpdatedAt = time.Now()

	if err := s.trainingRepo.UpdateExample(ctx, example); err != nil {
		return nil, fmt.Errorf("failed to update example: %w", err)
	}

	return example, nil
}

// ExportDataset writes every approved example to object storage as
// chat-format JSONL and records the run. Refuses to export a dataset
// too small to be worth a training pass.
func (s *TrainingService) ExportDataset(ctx context.Context, name string) (*domain.TrainingRun, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.Validation("run name is required")
	}

	approved, err := s.trainingRepo.ListApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved examples: %w", err)
	}

	minExamples := s.cfg.MinExamples
	if minExamples <= 0 {
		minExamples = 10
	}
	if len(approved) < minExamples {
		return nil, apperrors.Unprocessable(fmt.Sprintf("need at least %d approved examples, have %d", minExamples, len(approved)))
	}

	data, err := encodeChatJSONL(approved)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dataset: %w", err)
	}

	prefix := strings.Trim(s.cfg.ExportPrefix, "/")
	if prefix == "" {
		prefix = "training"
	}
	key := fmt.Sprintf("%s/%s-%s.jsonl", prefix, domain.GenerateSlug(name), time.Now().UTC().Format("20060102-150405"))

	if err := s.store.Put(ctx, key, data, "application/x-ndjson"); err != nil {
		return nil, fmt.Errorf("failed to upload dataset: %w", err)
	}

	ids := make([]uuid.UUID, len(approved))
	for i, ex := range approved {
		ids[i] = ex.ID
	}

	now := time.Now()
	run := &domain.TrainingRun{
		ID:           uuid.New(),
		Name:         name,
		BaseModel:    s.cfg.DefaultBaseModel,
		Status:       domain.TrainingRunStatusExported,
		ExampleCount: len(approved),
		DatasetKey:   key,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.trainingRepo.MarkExported(ctx, run, ids); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	s.logger.Info("exported training dataset",
		zap.String("run", run.Name),
		zap.String("key", key),
		zap.Int("examples", run.ExampleCount))

	return run, nil
}

// GetRun retrieves a training run by ID
func (s *TrainingService) GetRun(ctx context.Context, id uuid.UUID) (*domain.TrainingRun, error) {
	return s.trainingRepo.GetRunByID(ctx, id)
}

// DatasetURL returns a time-limited download link for a run's exported
// dataset. The training box pulls the JSONL through this.
func (s *TrainingService) DatasetURL(ctx context.Context, id uuid.UUID) (string, error) {
	run, err := s.trainingRepo.GetRunByID(ctx, id)
	if err != nil {
		return "", err
	}
	if run.DatasetKey == "" {
		return "", apperrors.NotFound("dataset")
	}

	url, err := s.store.PresignedGetURL(ctx, run.DatasetKey, datasetURLExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign dataset %s: %w", run.DatasetKey, err)
	}
	return url, nil
}

// ListRuns retrieves recent training runs
func (s *TrainingService) ListRuns(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.trainingRepo.ListRuns(ctx, limit)
}

// UpdateRunStatus applies an out-of-band status report from the
// training box. Completed and failed runs are final.
func (s *TrainingService) UpdateRunStatus(ctx context.Context, id uuid.UUID, input *domain.TrainingRunStatusInput) (*domain.TrainingRun, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if !input.Status.IsValid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid status %q", input.Status))
	}

	run, err := s.trainingRepo.GetRunByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if run.Status.IsTerminal() {
		return nil, apperrors.Conflict(fmt.Sprintf("run is already %s", run.Status))
	}

	now := time.Now()
	switch input.Status {
	case domain.TrainingRunStatusTraining:
		if run.Status != domain.TrainingRunStatusExported {
			return nil, apperrors.Conflict(fmt.Sprintf("cannot start training a %s run", run.Status))
		}
		run.StartedAt = &now
	case domain.TrainingRunStatusCompleted, domain.TrainingRunStatusFailed:
		run.CompletedAt = &now
	default:
		return nil, apperrors.Validation(fmt.Sprintf("cannot move a run to %q", input.Status))
	}

	run.Status = input.Status
	if input.AdapterPath != nil {
		run.AdapterPath = *input.AdapterPath
	}
	if input.Notes != nil {
		run.Notes = *input.Notes
	}
	run.UpdatedAt = now

	if err := s.trainingRepo.UpdateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to update run: %w", err)
	}

	return run, nil
}

// Stats summarizes the curation pipeline
func (s *TrainingService) Stats(ctx context.Context) (*domain.TrainingStats, error) {
	return s.trainingRepo.Stats(ctx)
}

// chatRecord is one JSONL line in the exported dataset, shaped the way
// chat fine-tuning tools expect
type chatRecord struct {
	Messages []chatRecordMessage `json:"messages"`
}

type chatRecordMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func encodeChatJSONL(examples []domain.TrainingExample) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for _, ex := range examples {
		record := chatRecord{}
		if ex.SystemPrompt != "" {
			record.Messages = append(record.Messages, chatRecordMessage{Role: "system", Content: ex.SystemPrompt})
		}
		record.Messages = append(record.Messages,
			chatRecordMessage{Role: "user", Content: ex.Prompt},
			chatRecordMessage{Role: "assistant", Content: ex.Response},
		)

		if err := enc.Encode(record); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}
