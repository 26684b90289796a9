package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/angelahq/angela/internal/domain"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

// MockReminderRepository is a mock implementation of ReminderRepository
type MockReminderRepository struct {
	mock.Mock
}

func (m *MockReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	args := m.Called(ctx, reminder)
	return args.Error(0)
}

func (m *MockReminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reminder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reminder), args.Error(1)
}

func (m *MockReminderRepository) Update(ctx context.Context, reminder *domain.Reminder) error {
	args := m.Called(ctx, reminder)
	return args.Error(0)
}

func (m *MockReminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReminderRepository) List(ctx context.Context, filter *domain.ReminderFilter) (*domain.ReminderList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReminderList), args.Error(1)
}

func (m *MockReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Reminder, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reminder), args.Error(1)
}

func TestReminderService_Create(t *testing.T) {
	t.Run("creates a pending reminder with defaults", func(t *testing.T) {
		repo := new(MockReminderRepository)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Reminder")).Return(nil)

		svc := NewReminderService(repo)

		reminder, err := svc.Create(context.Background(), &domain.ReminderInput{
			Title: "Water the plants",
			DueAt: time.Now().Add(time.Hour),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.ReminderStatusPending, reminder.Status)
		assert.Equal(t, domain.RecurrenceNone, reminder.Recurrence)
		assert.Equal(t, domain.ReminderPriorityNormal, reminder.Priority)
		assert.Equal(t, domain.ReminderChannelDashboard, reminder.Channel)
	})

	t.Run("rejects an unknown recurrence", func(t *testing.T) {
		svc := NewReminderService(new(MockReminderRepository))

		reminder, err := svc.Create(context.Background(), &domain.ReminderInput{
			Title:      "Water the plants",
			DueAt:      time.Now().Add(time.Hour),
			Recurrence: domain.Recurrence("fortnightly"),
		})

		require.Error(t, err)
		assert.Nil(t, reminder)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestReminderService_Update(t *testing.T) {
	t.Run("re-arms a sent reminder when due time moves", func(t *testing.T) {
		repo := new(MockReminderRepository)

		id := uuid.New()
		delivered := time.Now().Add(-time.Hour)
		repo.On("GetByID", mock.Anything, id).Return(&domain.Reminder{
			ID:          id,
			Title:       "Standup",
			Status:      domain.ReminderStatusSent,
			DueAt:       delivered,
			DeliveredAt: &delivered,
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Reminder")).Return(nil)

		svc := NewReminderService(repo)

		newDue := time.Now().Add(2 * time.Hour)
		reminder, err := svc.Update(context.Background(), id, &domain.ReminderUpdateInput{
			DueAt: &newDue,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.ReminderStatusPending, reminder.Status)
		assert.Nil(t, reminder.DeliveredAt)
	})
}

func TestReminderService_Snooze(t *testing.T) {
	t.Run("snoozes a pending reminder", func(t *testing.T) {
		repo := new(MockReminderRepository)

		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Reminder{
			ID:     id,
			Status: domain.ReminderStatusPending,
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Reminder")).Return(nil)

		svc := NewReminderService(repo)

		until := time.Now().Add(3 * time.Hour)
		reminder, err := svc.Snooze(context.Background(), id, until)

		require.NoError(t, err)
		assert.Equal(t, domain.ReminderStatusSnoozed, reminder.Status)
		require.NotNil(t, reminder.SnoozedUntil)
		assert.Equal(t, until, *reminder.SnoozedUntil)
	})

	t.Run("rejects a snooze into the past", func(t *testing.T) {
		svc := NewReminderService(new(MockReminderRepository))

		reminder, err := svc.Snooze(context.Background(), uuid.New(), time.Now().Add(-time.Minute))

		require.Error(t, err)
		assert.Nil(t, reminder)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("refuses to snooze a done reminder", func(t *testing.T) {
		repo := new(MockReminderRepository)

		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Reminder{
			ID:     id,
			Status: domain.ReminderStatusDone,
		}, nil)

		svc := NewReminderService(repo)

		reminder, err := svc.Snooze(context.Background(), id, time.Now().Add(time.Hour))

		require.Error(t, err)
		assert.Nil(t, reminder)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestReminderService_MarkDelivered(t *testing.T) {
	t.Run("moves a one-shot reminder to sent", func(t *testing.T) {
		repo := new(MockReminderRepository)

		id := uuid.New()
		now := time.Now()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Reminder{
			ID:         id,
			Status:     domain.ReminderStatusPending,
			Recurrence: domain.RecurrenceNone,
			DueAt:      now.Add(-time.Minute),
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Reminder")).Return(nil)

		svc := NewReminderService(repo)

		reminder, err := svc.MarkDelivered(context.Background(), id, now)

		require.NoError(t, err)
		assert.Equal(t, domain.ReminderStatusSent, reminder.Status)
		require.NotNil(t, reminder.DeliveredAt)
		assert.Equal(t, now, *reminder.DeliveredAt)
	})

	t.Run("re-arms a daily reminder at the next occurrence", func(t *testing.T) {
		repo := new(MockReminderRepository)

		id := uuid.New()
		now := time.Now()
		due := now.Add(-30 * time.Minute)
		repo.On("GetByID", mock.Anything, id).Return(&domain.Reminder{
			ID:         id,
			Status:     domain.ReminderStatusPending,
			Recurrence: domain.RecurrenceDaily,
			DueAt:      due,
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Reminder")).Return(nil)

		svc := NewReminderService(repo)

		reminder, err := svc.MarkDelivered(context.Background(), id, now)

		require.NoError(t, err)
		assert.Equal(t, domain.ReminderStatusPending, reminder.Status)
		assert.Nil(t, reminder.DeliveredAt)
		assert.True(t, reminder.DueAt.After(now))
	})

	t.Run("refuses a terminal reminder", func(t *testing.T) {
		repo := new(MockReminderRepository)

		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Reminder{
			ID:     id,
			Status: domain.ReminderStatusCancelled,
		}, nil)

		svc := NewReminderService(repo)

		reminder, err := svc.MarkDelivered(context.Background(), id, time.Now())

		require.Error(t, err)
		assert.Nil(t, reminder)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestReminderService_DueBefore(t *testing.T) {
	t.Run("defaults the batch limit", func(t *testing.T) {
		repo := new(MockReminderRepository)

		now := time.Now()
		repo.On("ListDue", mock.Anything, now, 100).Return([]domain.Reminder{}, nil)

		svc := NewReminderService(repo)

		_, err := svc.DueBefore(context.Background(), now, 0)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}
