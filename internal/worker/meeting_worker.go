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

// TypeMeetingSummarize is the task type for summarizing a completed meeting
const TypeMeetingSummarize = "meeting:summarize"

// MeetingSummarizePayload represents the payload for summarize tasks
type MeetingSummarizePayload struct {
	MeetingID uuid.UUID `json:"meetingId"`
}

// MeetingSummarizer distills meeting notes with the local model.
type MeetingSummarizer interface {
	Summarize(ctx context.Context, id uuid.UUID) (*domain.Meeting, error)
}

// MeetingWorker handles meeting-related background tasks
type MeetingWorker struct {
	logger   *zap.Logger
	meetings MeetingSummarizer
}

// NewMeetingWorker creates a new meeting worker
func NewMeetingWorker(logger *zap.Logger, meetings MeetingSummarizer) *MeetingWorker {
	return &MeetingWorker{
		logger:   logger,
		meetings: meetings,
	}
}

// RegisterHandlers registers all meeting task handlers
func (w *MeetingWorker) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeMeetingSummarize, w.HandleMeetingSummarize)
}

// HandleMeetingSummarize summarizes one meeting. A meeting deleted
// before the task ran, or one whose notes were cleared, is not an
// error; a model outage is, so the task retries once the server is back.
func (w *MeetingWorker) HandleMeetingSummarize(ctx context.Context, t *asynq.Task) error {
	var payload MeetingSummarizePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	meeting, err := w.meetings.Summarize(ctx, payload.MeetingID)
	if err != nil {
		if apperrors.IsNotFound(err) || apperrors.IsValidation(err) {
			w.logger.Debug("nothing to summarize", zap.String("meetingId", payload.MeetingID.String()))
			return nil
		}
		return fmt.Errorf("failed to summarize meeting: %w", err)
	}

	w.logger.Info("meeting summarized",
		zap.String("meetingId", meeting.ID.String()),
		zap.String("title", meeting.Title),
	)

	return nil
}

// EnqueueMeetingSummarize schedules summarization for a completed meeting
func EnqueueMeetingSummarize(ctx context.Context, client *asynq.Client, meetingID uuid.UUID) error {
	payload, err := json.Marshal(MeetingSummarizePayload{MeetingID: meetingID})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeMeetingSummarize, payload,
		asynq.MaxRetry(3),
		asynq.Queue(QueueDefault),
	)

	_, err = client.EnqueueContext(ctx, task)
	return err
}
