package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/domain"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

const (
	// TypeReminderScan is the task type for the periodic due-reminder scan
	TypeReminderScan = "reminder:scan"

	// TypeReminderDeliver is the task type for delivering one reminder
	TypeReminderDeliver = "reminder:deliver"

	// reminderScanBatch bounds one scan. Leftovers stay pending and the
	// next scan picks them up.
	reminderScanBatch = 100
)

// ReminderDeliverPayload represents the payload for reminder delivery tasks
type ReminderDeliverPayload struct {
	ReminderID uuid.UUID `json:"reminderId"`
}

// ReminderSource is the slice of the reminder service the dispatch uses.
type ReminderSource interface {
	DueBefore(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Reminder, error)
}

// ReminderPublisher pushes a due reminder to live dashboard streams.
type ReminderPublisher interface {
	PublishReminderDue(reminder *domain.Reminder)
}

// EmailSender delivers reminder emails. Nil when the Google integration
// is not configured.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

// TaskEnqueuer enqueues follow-on tasks from inside a handler.
// *asynq.Client satisfies it.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReminderWorker scans for due reminders and delivers them. Delivery is
// at-least-once: a failed delivery task retries and may publish again.
type ReminderWorker struct {
	logger    *zap.Logger
	reminders ReminderSource
	publisher ReminderPublisher
	email     EmailSender
	emailTo   string
	tasks     TaskEnqueuer
}

// NewReminderWorker creates a new reminder worker
func NewReminderWorker(
	logger *zap.Logger,
	reminders ReminderSource,
	publisher ReminderPublisher,
	email EmailSender,
	emailTo string,
) *ReminderWorker {
	return &ReminderWorker{
		logger:    logger,
		reminders: reminders,
		publisher: publisher,
		email:     email,
		emailTo:   emailTo,
	}
}

// SetEnqueuer hands the worker the client used to fan scan results out
// into per-reminder delivery tasks. Without one, the scan delivers
// inline.
func (w *ReminderWorker) SetEnqueuer(tasks TaskEnqueuer) {
	w.tasks = tasks
}

// RegisterHandlers registers all reminder task handlers
func (w *ReminderWorker) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeReminderScan, w.HandleReminderScan)
	mux.HandleFunc(TypeReminderDeliver, w.HandleReminderDeliver)
}

// HandleReminderScan finds due reminders and fans each out into its own
// delivery task so one failing channel cannot hold back the rest. The
// scan itself never retries; the next cron tick is the retry.
func (w *ReminderWorker) HandleReminderScan(ctx context.Context, t *asynq.Task) error {
	now := time.Now()

	due, err := w.reminders.DueBefore(ctx, now, reminderScanBatch)
	if err != nil {
		return fmt.Errorf("failed to list due reminders: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	dispatched := 0
	for i := range due {
		reminder := &due[i]
		if w.tasks == nil {
			if err := w.deliver(ctx, reminder, now); err != nil {
				w.logger.Warn("reminder delivery failed",
					zap.String("reminderId", reminder.ID.String()),
					zap.Error(err),
				)
				continue
			}
			dispatched++
			continue
		}

		payload, err := json.Marshal(ReminderDeliverPayload{ReminderID: reminder.ID})
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		task := asynq.NewTask(TypeReminderDeliver, payload,
			asynq.MaxRetry(5),
			asynq.Queue(QueueCritical),
		)
		if _, err := w.tasks.EnqueueContext(ctx, task); err != nil {
			w.logger.Warn("failed to enqueue reminder delivery",
				zap.String("reminderId", reminder.ID.String()),
				zap.Error(err),
			)
			continue
		}
		dispatched++
	}

	w.logger.Info("reminder scan complete",
		zap.Int("due", len(due)),
		zap.Int("dispatched", dispatched),
	)

	return nil
}

// HandleReminderDeliver delivers one reminder
func (w *ReminderWorker) HandleReminderDeliver(ctx context.Context, t *asynq.Task) error {
	var payload ReminderDeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	reminder, err := w.reminders.Get(ctx, payload.ReminderID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to load reminder: %w", err)
	}

	now := time.Now()
	// The reminder may have been completed, cancelled or snoozed between
	// the scan and this task running
	if !reminder.IsDue(now) {
		return nil
	}

	return w.deliver(ctx, reminder, now)
}

// deliver publishes the reminder on its channels and records delivery.
// An email failure aborts before MarkDelivered so the task retries with
// the reminder still due.
func (w *ReminderWorker) deliver(ctx context.Context, reminder *domain.Reminder, now time.Time) error {
	w.publisher.PublishReminderDue(reminder)

	if reminder.Channel == domain.ReminderChannelEmail {
		if w.email == nil {
			w.logger.Warn("email reminder without gmail configured, dashboard only",
				zap.String("reminderId", reminder.ID.String()),
			)
		} else {
			subject := "Reminder: " + reminder.Title
			if _, err := w.email.Send(ctx, w.emailTo, subject, reminderEmailBody(reminder)); err != nil {
				return fmt.Errorf("failed to send reminder email: %w", err)
			}
		}
	}

	if _, err := w.reminders.MarkDelivered(ctx, reminder.ID, now); err != nil {
		if apperrors.IsConflict(err) {
			// Already terminal, a concurrent delivery won
			return nil
		}
		return fmt.Errorf("failed to mark reminder delivered: %w", err)
	}

	w.logger.Info("reminder delivered",
		zap.String("reminderId", reminder.ID.String()),
		zap.String("title", reminder.Title),
		zap.String("channel", string(reminder.Channel)),
	)

	return nil
}

// reminderEmailBody renders the plain-text email for a reminder
func reminderEmailBody(reminder *domain.Reminder) string {
	body := reminder.Title + "\n\nDue: " + reminder.DueAt.Format("Mon Jan 2 2006 15:04")
	if reminder.Notes != "" {
		body += "\n\n" + reminder.Notes
	}
	if reminder.Recurrence != domain.RecurrenceNone {
		body += fmt.Sprintf("\n\nRepeats %s.", reminder.Recurrence)
	}
	return body
}
