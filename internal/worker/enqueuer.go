package worker

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Enqueuer hands post-turn work to the queue. It satisfies the chat
// service's followup contract so the API process schedules background
// tasks without knowing about asynq.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer creates an enqueuer over the given client
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EmbedMessage schedules embedding for a stored message
func (e *Enqueuer) EmbedMessage(ctx context.Context, messageID uuid.UUID) error {
	return EnqueueMessageEmbed(ctx, e.client, messageID)
}

// CaptureTraining schedules training capture for a finished turn
func (e *Enqueuer) CaptureTraining(ctx context.Context, conversationID, userMessageID, assistantMessageID uuid.UUID) error {
	return EnqueueTrainingCapture(ctx, e.client, conversationID, userMessageID, assistantMessageID)
}

// GenerateTitle schedules title generation for a conversation
func (e *Enqueuer) GenerateTitle(ctx context.Context, conversationID uuid.UUID) error {
	return EnqueueTitleGenerate(ctx, e.client, conversationID)
}

// SummarizeMeeting schedules summarization for a completed meeting
func (e *Enqueuer) SummarizeMeeting(ctx context.Context, meetingID uuid.UUID) error {
	return EnqueueMeetingSummarize(ctx, e.client, meetingID)
}

// Close releases the underlying client connection
func (e *Enqueuer) Close() error {
	return e.client.Close()
}
