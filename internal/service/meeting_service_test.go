package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/ollama"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

// MockMeetingRepository is a mock implementation of MeetingRepository
type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	args := m.Called(ctx, meeting)
	return args.Error(0)
}

func (m *MockMeetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Meeting, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) Update(ctx context.Context, meeting *domain.Meeting) error {
	args := m.Called(ctx, meeting)
	return args.Error(0)
}

func (m *MockMeetingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMeetingRepository) List(ctx context.Context, filter *domain.MeetingFilter) (*domain.MeetingList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MeetingList), args.Error(1)
}

func (m *MockMeetingRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]domain.Meeting, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Meeting), args.Error(1)
}

func testOllamaConfig() config.OllamaConfig {
	return config.OllamaConfig{
		ChatModel:  "llama3.1:8b",
		EmbedModel: "nomic-embed-text",
	}
}

func TestMeetingService_Create(t *testing.T) {
	t.Run("creates a scheduled meeting", func(t *testing.T) {
		repo := new(MockMeetingRepository)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Meeting")).Return(nil)

		svc := NewMeetingService(repo, new(MockLLM), testOllamaConfig())

		starts := time.Now().Add(time.Hour)
		meeting, err := svc.Create(context.Background(), &domain.MeetingInput{
			Title:    "Sprint planning",
			StartsAt: starts,
			EndsAt:   starts.Add(time.Hour),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.MeetingStatusScheduled, meeting.Status)
		assert.Equal(t, "Sprint planning", meeting.Title)
	})

	t.Run("rejects a meeting that ends before it starts", func(t *testing.T) {
		svc := NewMeetingService(new(MockMeetingRepository), new(MockLLM), testOllamaConfig())

		starts := time.Now().Add(time.Hour)
		meeting, err := svc.Create(context.Background(), &domain.MeetingInput{
			Title:    "Backwards",
			StartsAt: starts,
			EndsAt:   starts.Add(-30 * time.Minute),
		})

		require.Error(t, err)
		assert.Nil(t, meeting)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestMeetingService_Update(t *testing.T) {
	t.Run("re-checks the time window after merge", func(t *testing.T) {
		repo := new(MockMeetingRepository)

		id := uuid.New()
		starts := time.Now().Add(time.Hour)
		repo.On("GetByID", mock.Anything, id).Return(&domain.Meeting{
			ID:       id,
			Title:    "Standup",
			StartsAt: starts,
			EndsAt:   starts.Add(30 * time.Minute),
			Status:   domain.MeetingStatusScheduled,
		}, nil)

		svc := NewMeetingService(repo, new(MockLLM), testOllamaConfig())

		badEnd := starts.Add(-time.Hour)
		meeting, err := svc.Update(context.Background(), id, &domain.MeetingUpdateInput{
			EndsAt: &badEnd,
		})

		require.Error(t, err)
		assert.Nil(t, meeting)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("updates action items", func(t *testing.T) {
		repo := new(MockMeetingRepository)

		id := uuid.New()
		starts := time.Now().Add(time.Hour)
		repo.On("GetByID", mock.Anything, id).Return(&domain.Meeting{
			ID:       id,
			Title:    "Standup",
			StartsAt: starts,
			EndsAt:   starts.Add(30 * time.Minute),
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Meeting")).Return(nil)

		svc := NewMeetingService(repo, new(MockLLM), testOllamaConfig())

		meeting, err := svc.Update(context.Background(), id, &domain.MeetingUpdateInput{
			ActionItems: []domain.ActionItem{{Description: "Ship it", Done: false}},
		})

		require.NoError(t, err)
		require.Len(t, meeting.ActionItems, 1)
		assert.Equal(t, "Ship it", meeting.ActionItems[0].Description)
	})
}

func TestMeetingService_Complete(t *testing.T) {
	t.Run("completes and appends notes", func(t *testing.T) {
		repo := new(MockMeetingRepository)

		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Meeting{
			ID:     id,
			Status: domain.MeetingStatusScheduled,
			Notes:  "Agenda",
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Meeting")).Return(nil)

		svc := NewMeetingService(repo, new(MockLLM), testOllamaConfig())

		meeting, err := svc.Complete(context.Background(), id, "Decided to ship Friday")

		require.NoError(t, err)
		assert.Equal(t, domain.MeetingStatusCompleted, meeting.Status)
		assert.Equal(t, "Agenda\n\nDecided to ship Friday", meeting.Notes)
	})

	t.Run("refuses to complete a cancelled meeting", func(t *testing.T) {
		repo := new(MockMeetingRepository)

		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Meeting{
			ID:     id,
			Status: domain.MeetingStatusCancelled,
		}, nil)

		svc := NewMeetingService(repo, new(MockLLM), testOllamaConfig())

		meeting, err := svc.Complete(context.Background(), id, "")

		require.Error(t, err)
		assert.Nil(t, meeting)
		assert.True(t, apperrors.IsConflict(err))
	})
}

func TestMeetingService_Summarize(t *testing.T) {
	t.Run("stores the model summary", func(t *testing.T) {
		repo := new(MockMeetingRepository)
		llm := new(MockLLM)

		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Meeting{
			ID:    id,
			Title: "Roadmap review",
			Notes: "Long discussion about Q4 priorities",
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Meeting")).Return(nil)

		llm.On("Chat", mock.Anything, mock.AnythingOfType("*ollama.ChatRequest")).Return(&ollama.ChatResponse{
			Message: ollama.ChatMessage{Role: "assistant", Content: "  Q4 priorities were agreed.  "},
			Done:    true,
		}, nil)

		svc := NewMeetingService(repo, llm, testOllamaConfig())

		meeting, err := svc.Summarize(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, "Q4 priorities were agreed.", meeting.Summary)
		llm.AssertExpectations(t)
	})

	t.Run("refuses a meeting with nothing to summarize", func(t *testing.T) {
		repo := new(MockMeetingRepository)

		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Meeting{ID: id, Title: "Empty"}, nil)

		svc := NewMeetingService(repo, new(MockLLM), testOllamaConfig())

		meeting, err := svc.Summarize(context.Background(), id)

		require.Error(t, err)
		assert.Nil(t, meeting)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("propagates model unavailability without storing", func(t *testing.T) {
		repo := new(MockMeetingRepository)
		llm := new(MockLLM)

		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Meeting{
			ID:    id,
			Title: "Roadmap review",
			Notes: "notes",
		}, nil)

		llm.On("Chat", mock.Anything, mock.Anything).Return(nil, apperrors.Unavailable("model server unavailable"))

		svc := NewMeetingService(repo, llm, testOllamaConfig())

		meeting, err := svc.Summarize(context.Background(), id)

		require.Error(t, err)
		assert.Nil(t, meeting)
		assert.True(t, apperrors.IsUnavailable(err))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("rejects an empty model reply", func(t *testing.T) {
		repo := new(MockMeetingRepository)
		llm := new(MockLLM)

		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Meeting{
			ID:    id,
			Title: "Roadmap review",
			Notes: "notes",
		}, nil)

		llm.On("Chat", mock.Anything, mock.Anything).Return(&ollama.ChatResponse{
			Message: ollama.ChatMessage{Role: "assistant", Content: "   "},
		}, nil)

		svc := NewMeetingService(repo, llm, testOllamaConfig())

		meeting, err := svc.Summarize(context.Background(), id)

		require.Error(t, err)
		assert.Nil(t, meeting)
		assert.True(t, apperrors.IsUnavailable(err))
	})
}

func TestMeetingService_ListUpcoming(t *testing.T) {
	t.Run("defaults the window to a week", func(t *testing.T) {
		repo := new(MockMeetingRepository)

		repo.On("ListUpcoming", mock.Anything, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Run(func(args mock.Arguments) {
				from := args.Get(1).(time.Time)
				to := args.Get(2).(time.Time)
				assert.InDelta(t, (7 * 24 * time.Hour).Seconds(), to.Sub(from).Seconds(), 1)
			}).
			Return([]domain.Meeting{}, nil)

		svc := NewMeetingService(repo, new(MockLLM), testOllamaConfig())

		_, err := svc.ListUpcoming(context.Background(), 0)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}
