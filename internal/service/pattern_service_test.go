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

// MockPatternRepository is a mock implementation of PatternRepository
type MockPatternRepository struct {
	mock.Mock
}

func (m *MockPatternRepository) Create(ctx context.Context, pattern *domain.Pattern) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

func (m *MockPatternRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Pattern, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pattern), args.Error(1)
}

func (m *MockPatternRepository) Update(ctx context.Context, pattern *domain.Pattern) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

func (m *MockPatternRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPatternRepository) List(ctx context.Context, filter *domain.PatternFilter) (*domain.PatternList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PatternList), args.Error(1)
}

func (m *MockPatternRepository) ListActive(ctx context.Context, minConfidence float64, limit int) ([]domain.Pattern, error) {
	args := m.Called(ctx, minConfidence, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Pattern), args.Error(1)
}

func (m *MockPatternRepository) ListAll(ctx context.Context) ([]domain.Pattern, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Pattern), args.Error(1)
}

func TestPatternService_Create(t *testing.T) {
	t.Run("creates an active pattern with default confidence", func(t *testing.T) {
		repo := new(MockPatternRepository)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Pattern")).Return(nil)

		svc := NewPatternService(repo)

		pattern, err := svc.Create(context.Background(), &domain.PatternInput{
			Kind:        domain.PatternKindHabit,
			Description: "Checks email first thing in the morning",
		})

		require.NoError(t, err)
		assert.True(t, pattern.Active)
		assert.Equal(t, 0.3, pattern.Confidence)
		assert.Equal(t, 1, pattern.EvidenceCount)
		assert.False(t, pattern.FirstObservedAt.IsZero())
	})

	t.Run("rejects an unknown kind", func(t *testing.T) {
		svc := NewPatternService(new(MockPatternRepository))

		pattern, err := svc.Create(context.Background(), &domain.PatternInput{
			Kind:        domain.PatternKind("vibe"),
			Description: "Some description",
		})

		require.Error(t, err)
		assert.Nil(t, pattern)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestPatternService_Reinforce(t *testing.T) {
	t.Run("raises confidence and evidence count", func(t *testing.T) {
		repo := new(MockPatternRepository)

		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Pattern{
			ID:            id,
			Kind:          domain.PatternKindHabit,
			Confidence:    0.4,
			EvidenceCount: 2,
			Active:        true,
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Pattern")).Return(nil)

		svc := NewPatternService(repo)

		pattern, err := svc.Reinforce(context.Background(), id)

		require.NoError(t, err)
		assert.Greater(t, pattern.Confidence, 0.4)
		assert.Equal(t, 3, pattern.EvidenceCount)
		assert.WithinDuration(t, time.Now(), pattern.LastObservedAt, time.Minute)
	})
}

func TestPatternService_Contradict(t *testing.T) {
	t.Run("lowers confidence", func(t *testing.T) {
		repo := new(MockPatternRepository)

		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Pattern{
			ID:         id,
			Confidence: 0.8,
			Active:     true,
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Pattern")).Return(nil)

		svc := NewPatternService(repo)

		pattern, err := svc.Contradict(context.Background(), id)

		require.NoError(t, err)
		assert.Less(t, pattern.Confidence, 0.8)
		assert.True(t, pattern.Active)
	})

	t.Run("deactivates a collapsed pattern", func(t *testing.T) {
		repo := new(MockPatternRepository)

		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Pattern{
			ID:         id,
			Confidence: 0.25,
			Active:     true,
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Pattern")).Return(nil)

		svc := NewPatternService(repo)

		pattern, err := svc.Contradict(context.Background(), id)

		require.NoError(t, err)
		assert.False(t, pattern.Active)
	})
}

func TestPatternService_DecayAll(t *testing.T) {
	t.Run("erodes stale patterns and counts them", func(t *testing.T) {
		repo := new(MockPatternRepository)

		asOf := time.Now()
		stale := asOf.Add(-8 * 7 * 24 * time.Hour)
		fresh := asOf.Add(-24 * time.Hour)

		patterns := []domain.Pattern{
			{ID: uuid.New(), Confidence: 0.7, Active: true, LastObservedAt: stale},
			{ID: uuid.New(), Confidence: 0.7, Active: true, LastObservedAt: fresh},
			{ID: uuid.New(), Confidence: 0.7, Active: false, LastObservedAt: stale},
		}

		repo.On("ListAll", mock.Anything).Return(patterns, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Pattern")).Return(nil)

		svc := NewPatternService(repo)

		decayed, err := svc.DecayAll(context.Background(), asOf)

		require.NoError(t, err)
		assert.Equal(t, 1, decayed)
		repo.AssertNumberOfCalls(t, "Update", 1)
	})

	t.Run("stops on a persist failure", func(t *testing.T) {
		repo := new(MockPatternRepository)

		asOf := time.Now()
		stale := asOf.Add(-8 * 7 * 24 * time.Hour)

		patterns := []domain.Pattern{
			{ID: uuid.New(), Confidence: 0.7, Active: true, LastObservedAt: stale},
		}

		repo.On("ListAll", mock.Anything).Return(patterns, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(apperrors.Internal("db down"))

		svc := NewPatternService(repo)

		decayed, err := svc.DecayAll(context.Background(), asOf)

		require.Error(t, err)
		assert.Equal(t, 0, decayed)
	})
}
