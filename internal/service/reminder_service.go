package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelahq/angela/internal/domain"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
	"github.com/angelahq/angela/internal/validator"
)

// ReminderRepository defines reminder repository operations
type ReminderRepository interface {
	Create(ctx context.Context, reminder *domain.Reminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error)
	Update(ctx context.Context, reminder *domain.Reminder) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.ReminderFilter) (*domain.ReminderList, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error)
}

// ReminderService handles reminders and their delivery lifecycle
type ReminderService struct {
	reminderRepo ReminderRepository
}

// NewReminderService creates a new reminder service
func NewReminderService(reminderRepo ReminderRepository) *ReminderService {
	return &ReminderService{reminderRepo: reminderRepo}
}

// Create creates a new reminder
func (s *ReminderService) Create(ctx context.Context, input *domain.ReminderInput) (*domain.Reminder, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	recurrence := input.Recurrence
	if recurrence == "" {
		recurrence = domain.RecurrenceNone
	}
	if !recurrence.IsValid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid recurrence %q", recurrence))
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.ReminderPriorityNormal
	}
	if !priority.IsValid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid priority %q", priority))
	}

	channel := input.Channel
	if channel == "" {
		channel = domain.ReminderChannelDashboard
	}
	if !channel.IsValid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid channel %q", channel))
	}

	now := time.Now()
	reminder := &domain.Reminder{
		ID:         uuid.New(),
		Title:      input.Title,
		Notes:      input.Notes,
		DueAt:      input.DueAt,
		Recurrence: recurrence,
		Priority:   priority,
		Status:     domain.ReminderStatusPending,
		Channel:    channel,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.reminderRepo.Create(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	return reminder, nil
}

// Get retrieves a reminder by ID
func (s *ReminderService) Get(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	return s.reminderRepo.GetByID(ctx, id)
}

// Update applies a partial update to a reminder
func (s *ReminderService) Update(ctx context.Context, id uuid.UUID, input *domain.ReminderUpdateInput) (*domain.Reminder, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	reminder, err := s.reminderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		reminder.Title = *input.Title
	}
	if input.Notes != nil {
		reminder.Notes = *input.Notes
	}
	if input.DueAt != nil {
		reminder.DueAt = *input.DueAt
		// A moved due time re-arms a sent reminder
		if reminder.Status == domain.ReminderStatusSent {
			reminder.Status = domain.ReminderStatusPending
			reminder.DeliveredAt = nil
		}
	}
	if input.Recurrence != nil {
		if !input.Recurrence.IsValid() {
			return nil, apperrors.Validation(fmt.Sprintf("invalid recurrence %q", *input.Recurrence))
		}
		reminder.Recurrence = *input.Recurrence
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, apperrors.Validation(fmt.Sprintf("invalid priority %q", *input.Priority))
		}
		reminder.Priority = *input.Priority
	}
	if input.Channel != nil {
		if !input.Channel.IsValid() {
			return nil, apperrors.Validation(fmt.Sprintf("invalid channel %q", *input.Channel))
		}
		reminder.Channel = *input.Channel
	}

	reminder.UpdatedAt = time.Now()

	if err := s.reminderRepo.Update(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}

	return reminder, nil
}

// Delete deletes a reminder
func (s *ReminderService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.reminderRepo.Delete(ctx, id)
}

// List retrieves reminders matching the filter
func (s *ReminderService) List(ctx context.Context, filter *domain.ReminderFilter) (*domain.ReminderList, error) {
	return s.reminderRepo.List(ctx, filter)
}

// Snooze pushes a reminder to a later time
func (s *ReminderService) Snooze(ctx context.Context, id uuid.UUID, until time.Time) (*domain.Reminder, error) {
	if !until.After(time.Now()) {
		return nil, apperrors.Validation("snooze time must be in the future")
	}

	reminder, err := s.reminderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if reminder.Status.IsTerminal() {
		return nil, apperrors.Conflict(fmt.Sprintf("reminder is already %s", reminder.Status))
	}

	reminder.Status = domain.ReminderStatusSnoozed
	reminder.SnoozedUntil = &until
	reminder.UpdatedAt = time.Now()

	if err := s.reminderRepo.Update(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to snooze reminder: %w", err)
	}

	return reminder, nil
}

// Complete marks a reminder done
func (s *ReminderService) Complete(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	reminder, err := s.reminderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if reminder.Status.IsTerminal() {
		return nil, apperrors.Conflict(fmt.Sprintf("reminder is already %s", reminder.Status))
	}

	reminder.Status = domain.ReminderStatusDone
	reminder.SnoozedUntil = nil
	reminder.UpdatedAt = time.Now()

	if err := s.reminderRepo.Update(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to complete reminder: %w", err)
	}

	return reminder, nil
}

// DueBefore returns reminders that should be delivered by the given time
func (s *ReminderService) DueBefore(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.reminderRepo.ListDue(ctx, now, limit)
}

// MarkDelivered records a delivery. One-shot reminders move to sent;
// recurring reminders re-arm at the next occurrence after now.
func (s *ReminderService) MarkDelivered(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Reminder, error) {
	reminder, err := s.reminderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if reminder.Status.IsTerminal() {
		return nil, apperrors.Conflict(fmt.Sprintf("reminder is already %s", reminder.Status))
	}

	if !reminder.Reschedule(now) {
		reminder.Status = domain.ReminderStatusSent
		reminder.SnoozedUntil = nil
		reminder.DeliveredAt = &now
	}
	reminder.UpdatedAt = now

	if err := s.reminderRepo.Update(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to mark reminder delivered: %w", err)
	}

	return reminder, nil
}
