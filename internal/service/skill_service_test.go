package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/angelahq/angela/internal/domain"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

// MockSkillRepository is a mock implementation of SkillRepository
type MockSkillRepository struct {
	mock.Mock
}

func (m *MockSkillRepository) Create(ctx context.Context, skill *domain.Skill) error {
	args := m.Called(ctx, skill)
	return args.Error(0)
}

func (m *MockSkillRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Skill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Skill), args.Error(1)
}

func (m *MockSkillRepository) GetByName(ctx context.Context, name string) (*domain.Skill, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Skill), args.Error(1)
}

func (m *MockSkillRepository) Update(ctx context.Context, skill *domain.Skill) error {
	args := m.Called(ctx, skill)
	return args.Error(0)
}

func (m *MockSkillRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSkillRepository) List(ctx context.Context, filter *domain.SkillFilter) (*domain.SkillList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SkillList), args.Error(1)
}

func (m *MockSkillRepository) ListAll(ctx context.Context) ([]domain.Skill, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Skill), args.Error(1)
}

func TestSkillService_Create(t *testing.T) {
	t.Run("creates a learning skill with default target", func(t *testing.T) {
		repo := new(MockSkillRepository)

		repo.On("GetByName", mock.Anything, "Go profiling").Return(nil, apperrors.NotFound("skill"))
		repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Skill")).Return(nil)

		svc := NewSkillService(repo)

		skill, err := svc.Create(context.Background(), &domain.SkillInput{
			Name:     "Go profiling",
			Category: "engineering",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.SkillStatusLearning, skill.Status)
		assert.Equal(t, 0.8, skill.TargetProficiency)
	})

	t.Run("rejects a duplicate name", func(t *testing.T) {
		repo := new(MockSkillRepository)

		repo.On("GetByName", mock.Anything, "Go profiling").Return(&domain.Skill{
			ID:   uuid.New(),
			Name: "Go profiling",
		}, nil)

		svc := NewSkillService(repo)

		skill, err := svc.Create(context.Background(), &domain.SkillInput{Name: "Go profiling"})

		require.Error(t, err)
		assert.Nil(t, skill)
		assert.True(t, apperrors.IsConflict(err))
	})

	t.Run("propagates lookup failures", func(t *testing.T) {
		repo := new(MockSkillRepository)

		repo.On("GetByName", mock.Anything, "Go profiling").Return(nil, errors.New("db down"))

		svc := NewSkillService(repo)

		skill, err := svc.Create(context.Background(), &domain.SkillInput{Name: "Go profiling"})

		require.Error(t, err)
		assert.Nil(t, skill)
		assert.False(t, apperrors.IsConflict(err))
	})
}

func TestSkillService_RecordPractice(t *testing.T) {
	t.Run("bumps proficiency and practice count", func(t *testing.T) {
		repo := new(MockSkillRepository)

		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&domain.Skill{
			ID:          id,
			Name:        "Go profiling",
			Proficiency: 0.5,
			Status:      domain.SkillStatusPracticing,
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Skill")).Return(nil)

		svc := NewSkillService(repo)

		skill, err := svc.RecordPractice(context.Background(), id)

		require.NoError(t, err)
		assert.Equal(t, 1, skill.PracticeCount)
		assert.Greater(t, skill.Proficiency, 0.5)
		require.NotNil(t, skill.LastPracticedAt)
	})
}

func TestSkillService_DecayAll(t *testing.T) {
	t.Run("decays idle skills and counts them", func(t *testing.T) {
		repo := new(MockSkillRepository)

		asOf := time.Now()
		stale := asOf.Add(-6 * 7 * 24 * time.Hour)
		fresh := asOf.Add(-24 * time.Hour)

		skills := []domain.Skill{
			{ID: uuid.New(), Name: "idle", Proficiency: 0.6, Status: domain.SkillStatusPracticing, LastPracticedAt: &stale, CreatedAt: stale},
			{ID: uuid.New(), Name: "fresh", Proficiency: 0.6, Status: domain.SkillStatusPracticing, LastPracticedAt: &fresh, CreatedAt: stale},
			{ID: uuid.New(), Name: "mastered", Proficiency: 0.95, Status: domain.SkillStatusMastered, LastPracticedAt: &stale, CreatedAt: stale},
		}

		repo.On("ListAll", mock.Anything).Return(skills, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Skill")).Return(nil)

		svc := NewSkillService(repo)

		decayed, err := svc.DecayAll(context.Background(), asOf)

		require.NoError(t, err)
		assert.Equal(t, 1, decayed)
		repo.AssertNumberOfCalls(t, "Update", 1)
	})

	t.Run("stops on a persist failure", func(t *testing.T) {
		repo := new(MockSkillRepository)

		asOf := time.Now()
		stale := asOf.Add(-6 * 7 * 24 * time.Hour)

		skills := []domain.Skill{
			{ID: uuid.New(), Name: "idle", Proficiency: 0.6, Status: domain.SkillStatusPracticing, LastPracticedAt: &stale, CreatedAt: stale},
		}

		repo.On("ListAll", mock.Anything).Return(skills, nil)
		repo.On("Update", mock.Anything, mock.Anything).Return(errors.New("db down"))

		svc := NewSkillService(repo)

		decayed, err := svc.DecayAll(context.Background(), asOf)

		require.Error(t, err)
		assert.Equal(t, 0, decayed)
	})
}
