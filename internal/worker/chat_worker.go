package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/domain"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

const (
	// TypeMessageEmbed is the task type for embedding a single chat message
	TypeMessageEmbed = "chat:embed_message"

	// TypeTitleGenerate is the task type for naming an untitled conversation
	TypeTitleGenerate = "chat:generate_title"

	// TypeTrainingCapture is the task type for snapshotting a chat turn
	// as a fine-tuning candidate
	TypeTrainingCapture = "chat:capture_training"

	// TypeEmbedBackfill is the task type for the periodic sweep over
	// messages and facts still missing embeddings
	TypeEmbedBackfill = "chat:embed_backfill"

	// embedBackfillCron runs the sweep every ten minutes
	embedBackfillCron = "*/10 * * * *"

	// embedBackfillBatch bounds one sweep so a long outage drains over
	// several runs instead of one giant burst against the model server
	embedBackfillBatch = 200
)

// MessageEmbedPayload represents the payload for message embedding tasks
type MessageEmbedPayload struct {
	MessageID uuid.UUID `json:"messageId"`
}

// TitleGeneratePayload represents the payload for title generation tasks
type TitleGeneratePayload struct {
	ConversationID uuid.UUID `json:"conversationId"`
}

// TrainingCapturePayload represents the payload for training capture tasks
type TrainingCapturePayload struct {
	ConversationID     uuid.UUID `json:"conversationId"`
	UserMessageID      uuid.UUID `json:"userMessageId"`
	AssistantMessageID uuid.UUID `json:"assistantMessageId"`
}

// MessageStore is the slice of the conversation repository the embedding
// tasks read and write.
type MessageStore interface {
	GetMessageByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	SetMessageEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
	ListMessagesMissingEmbedding(ctx context.Context, limit int) ([]domain.Message, error)
}

// FactEmbedder backfills embeddings for facts stored while the model
// server was down.
type FactEmbedder interface {
	EmbedPending(ctx context.Context, batch int) (int, error)
}

// TitleGenerator names untitled conversations from their first turns.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, conversationID uuid.UUID) error
}

// TrainingCapturer snapshots a finished turn as a training example.
type TrainingCapturer interface {
	CaptureFromMessages(ctx context.Context, conversationID, userMessageID, assistantMessageID uuid.UUID) (*domain.TrainingExample, error)
}

// Embedder produces embedding vectors for message content.
type Embedder interface {
	Embed(ctx context.Context, model, prompt string) ([]float32, error)
}

// ChatWorker handles the async work a chat turn leaves behind: message
// embeddings, conversation titles and training capture.
type ChatWorker struct {
	logger     *zap.Logger
	messages   MessageStore
	facts      FactEmbedder
	titles     TitleGenerator
	training   TrainingCapturer
	llm        Embedder
	embedModel string
}

// NewChatWorker creates a new chat worker
func NewChatWorker(
	logger *zap.Logger,
	messages MessageStore,
	facts FactEmbedder,
	titles TitleGenerator,
	training TrainingCapturer,
	llm Embedder,
	embedModel string,
) *ChatWorker {
	return &ChatWorker{
		logger:     logger,
		messages:   messages,
		facts:      facts,
		titles:     titles,
		training:   training,
		llm:        llm,
		embedModel: embedModel,
	}
}

// RegisterHandlers registers all chat task handlers
func (w *ChatWorker) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeMessageEmbed, w.HandleMessageEmbed)
	mux.HandleFunc(TypeTitleGenerate, w.HandleTitleGenerate)
	mux.HandleFunc(TypeTrainingCapture, w.HandleTrainingCapture)
	mux.HandleFunc(TypeEmbedBackfill, w.HandleEmbedBackfill)
}

// HandleMessageEmbed embeds one stored message so it becomes searchable.
// A message deleted before the task ran is not an error.
func (w *ChatWorker) HandleMessageEmbed(ctx context.Context, t *asynq.Task) error {
	var payload MessageEmbedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	msg, err := w.messages.GetMessageByID(ctx, payload.MessageID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			w.logger.Debug("message gone before embedding", zap.String("messageId", payload.MessageID.String()))
			return nil
		}
		return fmt.Errorf("failed to load message: %w", err)
	}
	if msg.HasEmbedding {
		return nil
	}

	vec, err := w.llm.Embed(ctx, w.embedModel, msg.Content)
	if err != nil {
		return fmt.Errorf("failed to embed message %s: %w", msg.ID, err)
	}

	if err := w.messages.SetMessageEmbedding(ctx, msg.ID, vec); err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}

	return nil
}

// HandleTitleGenerate asks the model to name an untitled conversation
func (w *ChatWorker) HandleTitleGenerate(ctx context.Context, t *asynq.Task) error {
	var payload TitleGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := w.titles.GenerateTitle(ctx, payload.ConversationID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to generate title: %w", err)
	}

	return nil
}

// HandleTrainingCapture stores a completed turn as a candidate training
// example
func (w *ChatWorker) HandleTrainingCapture(ctx context.Context, t *asynq.Task) error {
	var payload TrainingCapturePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	_, err := w.training.CaptureFromMessages(ctx, payload.ConversationID, payload.UserMessageID, payload.AssistantMessageID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			w.logger.Debug("turn gone before capture", zap.String("conversationId", payload.ConversationID.String()))
			return nil
		}
		return fmt.Errorf("failed to capture training example: %w", err)
	}

	return nil
}

// HandleEmbedBackfill sweeps messages and facts that were stored while
// the embedding model was unreachable. The sweep stops at the first
// model failure and the next run picks up where it left off.
func (w *ChatWorker) HandleEmbedBackfill(ctx context.Context, t *asynq.Task) error {
	msgs, err := w.messages.ListMessagesMissingEmbedding(ctx, embedBackfillBatch)
	if err != nil {
		return fmt.Errorf("failed to list unembedded messages: %w", err)
	}

	embedded := 0
	for i := range msgs {
		msg := &msgs[i]
		vec, err := w.llm.Embed(ctx, w.embedModel, msg.Content)
		if err != nil {
			w.logger.Warn("embedding backfill interrupted",
				zap.Int("embedded", embedded),
				zap.Error(err),
			)
			return fmt.Errorf("failed to embed message %s: %w", msg.ID, err)
		}
		if err := w.messages.SetMessageEmbedding(ctx, msg.ID, vec); err != nil {
			return fmt.Errorf("failed to store embedding: %w", err)
		}
		embedded++
	}

	factCount, err := w.facts.EmbedPending(ctx, embedBackfillBatch)
	if err != nil {
		return fmt.Errorf("failed to backfill fact embeddings: %w", err)
	}

	if embedded > 0 || factCount > 0 {
		w.logger.Info("embedding backfill complete",
			zap.Int("messages", embedded),
			zap.Int("facts", factCount),
		)
	}

	return nil
}

// EnqueueMessageEmbed schedules embedding for a stored message
func EnqueueMessageEmbed(ctx context.Context, client *asynq.Client, messageID uuid.UUID) error {
	payload, err := json.Marshal(MessageEmbedPayload{MessageID: messageID})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeMessageEmbed, payload,
		asynq.MaxRetry(5),
		asynq.Queue(QueueDefault),
	)

	_, err = client.EnqueueContext(ctx, task)
	return err
}

// EnqueueTitleGenerate schedules title generation for a conversation
func EnqueueTitleGenerate(ctx context.Context, client *asynq.Client, conversationID uuid.UUID) error {
	payload, err := json.Marshal(TitleGeneratePayload{ConversationID: conversationID})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeTitleGenerate, payload,
		asynq.MaxRetry(3),
		asynq.Queue(QueueLow),
	)

	_, err = client.EnqueueContext(ctx, task)
	return err
}

// EnqueueTrainingCapture schedules training capture for a finished turn
func EnqueueTrainingCapture(ctx context.Context, client *asynq.Client, conversationID, userMessageID, assistantMessageID uuid.UUID) error {
	payload, err := json.Marshal(TrainingCapturePayload{
		ConversationID:     conversationID,
		UserMessageID:      userMessageID,
		AssistantMessageID: assistantMessageID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeTrainingCapture, payload,
		asynq.MaxRetry(3),
		asynq.Queue(QueueLow),
	)

	_, err = client.EnqueueContext(ctx, task)
	return err
}
