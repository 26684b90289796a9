package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/domain"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

// MockMemoryRepository is a mock implementation of MemoryRepository
type MockMemoryRepository struct {
	mock.Mock
}

func (m *MockMemoryRepository) Create(ctx context.Context, fact *domain.MemoryFact) error {
	args := m.Called(ctx, fact)
	return args.Error(0)
}

func (m *MockMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MemoryFact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemoryFact), args.Error(1)
}

func (m *MockMemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMemoryRepository) List(ctx context.Context, filter *domain.MemoryFilter) (*domain.MemoryList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MemoryList), args.Error(1)
}

func (m *MockMemoryRepository) ListCandidates(ctx context.Context, category *domain.MemoryCategory, limit int) ([]domain.MemoryFact, error) {
	args := m.Called(ctx, category, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MemoryFact), args.Error(1)
}

func (m *MockMemoryRepository) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	args := m.Called(ctx, id, embedding)
	return args.Error(0)
}

func (m *MockMemoryRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]domain.MemoryFact, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MemoryFact), args.Error(1)
}

func (m *MockMemoryRepository) BumpRecall(ctx context.Context, ids []uuid.UUID) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		ContextMessages: 20,
		MemoryRecall:    5,
		MinSimilarity:   0.3,
	}
}

func newMemoryService(repo *MockMemoryRepository, llm *MockLLM) *MemoryService {
	return NewMemoryService(repo, llm, testOllamaConfig(), testChatConfig(), zap.NewNop())
}

func TestMemoryService_Remember(t *testing.T) {
	t.Run("stores an embedded fact", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		llm := new(MockLLM)

		llm.On("Embed", mock.Anything, "nomic-embed-text", "Prefers tea over coffee").
			Return([]float32{0.1, 0.2, 0.3}, nil)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MemoryFact")).Return(nil)

		svc := newMemoryService(repo, llm)

		fact, err := svc.Remember(context.Background(), &domain.MemoryInput{
			Content: "Prefers tea over coffee",
		})

		require.NoError(t, err)
		assert.True(t, fact.HasEmbedding)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, fact.Embedding)
		assert.Equal(t, domain.MemoryCategoryFact, fact.Category)
		assert.Equal(t, 3, fact.Importance)
	})

	t.Run("stores unembedded when the model is down", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		llm := new(MockLLM)

		llm.On("Embed", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.Unavailable("model server unavailable"))
		repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.MemoryFact")).Return(nil)

		svc := newMemoryService(repo, llm)

		fact, err := svc.Remember(context.Background(), &domain.MemoryInput{
			Content: "Prefers tea over coffee",
		})

		require.NoError(t, err)
		assert.False(t, fact.HasEmbedding)
		assert.Nil(t, fact.Embedding)
		repo.AssertExpectations(t)
	})

	t.Run("propagates other embed failures", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		llm := new(MockLLM)

		llm.On("Embed", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, context.Canceled)

		svc := newMemoryService(repo, llm)

		fact, err := svc.Remember(context.Background(), &domain.MemoryInput{
			Content: "Prefers tea over coffee",
		})

		require.Error(t, err)
		assert.Nil(t, fact)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects an unknown category", func(t *testing.T) {
		svc := newMemoryService(new(MockMemoryRepository), new(MockLLM))

		fact, err := svc.Remember(context.Background(), &domain.MemoryInput{
			Content:  "Prefers tea over coffee",
			Category: domain.MemoryCategory("gossip"),
		})

		require.Error(t, err)
		assert.Nil(t, fact)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestMemoryService_Search(t *testing.T) {
	t.Run("ranks candidates by similarity", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		llm := new(MockLLM)

		llm.On("Embed", mock.Anything, "nomic-embed-text", "hot drinks").
			Return([]float32{1, 0}, nil)

		close1 := domain.MemoryFact{ID: uuid.New(), Content: "tea", Embedding: []float32{0.9, 0.1}, HasEmbedding: true}
		close2 := domain.MemoryFact{ID: uuid.New(), Content: "coffee", Embedding: []float32{0.7, 0.3}, HasEmbedding: true}
		far := domain.MemoryFact{ID: uuid.New(), Content: "bicycles", Embedding: []float32{0, 1}, HasEmbedding: true}
		unembedded := domain.MemoryFact{ID: uuid.New(), Content: "pending"}

		repo.On("ListCandidates", mock.Anything, (*domain.MemoryCategory)(nil), candidateFetchLimit).
			Return([]domain.MemoryFact{far, close2, close1, unembedded}, nil)
		repo.On("BumpRecall", mock.Anything, mock.Anything).Return(nil)

		svc := newMemoryService(repo, llm)

		results, err := svc.Search(context.Background(), &domain.MemorySearchInput{
			Query: "hot drinks",
		})

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "tea", results[0].Fact.Content)
		assert.Equal(t, "coffee", results[1].Fact.Content)
		assert.Greater(t, results[0].Similarity, results[1].Similarity)
	})

	t.Run("applies the similarity floor", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		llm := new(MockLLM)

		llm.On("Embed", mock.Anything, mock.Anything, mock.Anything).
			Return([]float32{1, 0}, nil)

		orthogonal := domain.MemoryFact{ID: uuid.New(), Content: "unrelated", Embedding: []float32{0, 1}, HasEmbedding: true}

		repo.On("ListCandidates", mock.Anything, (*domain.MemoryCategory)(nil), candidateFetchLimit).
			Return([]domain.MemoryFact{orthogonal}, nil)

		svc := newMemoryService(repo, llm)

		results, err := svc.Search(context.Background(), &domain.MemorySearchInput{
			Query:         "hot drinks",
			MinSimilarity: 0.5,
		})

		require.NoError(t, err)
		assert.Empty(t, results)
		repo.AssertNotCalled(t, "BumpRecall", mock.Anything, mock.Anything)
	})

	t.Run("fails when the query cannot be embedded", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		llm := new(MockLLM)

		llm.On("Embed", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, apperrors.Unavailable("model server unavailable"))

		svc := newMemoryService(repo, llm)

		results, err := svc.Search(context.Background(), &domain.MemorySearchInput{
			Query: "hot drinks",
		})

		require.Error(t, err)
		assert.Nil(t, results)
		assert.True(t, apperrors.IsUnavailable(err))
	})
}

func TestMemoryService_EmbedPending(t *testing.T) {
	t.Run("backfills missing embeddings", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		llm := new(MockLLM)

		f1 := domain.MemoryFact{ID: uuid.New(), Content: "one"}
		f2 := domain.MemoryFact{ID: uuid.New(), Content: "two"}

		repo.On("ListMissingEmbeddings", mock.Anything, 50).Return([]domain.MemoryFact{f1, f2}, nil)
		llm.On("Embed", mock.Anything, "nomic-embed-text", "one").Return([]float32{0.1}, nil)
		llm.On("Embed", mock.Anything, "nomic-embed-text", "two").Return([]float32{0.2}, nil)
		repo.On("SetEmbedding", mock.Anything, f1.ID, []float32{0.1}).Return(nil)
		repo.On("SetEmbedding", mock.Anything, f2.ID, []float32{0.2}).Return(nil)

		svc := newMemoryService(repo, llm)

		n, err := svc.EmbedPending(context.Background(), 0)

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		repo.AssertExpectations(t)
	})

	t.Run("stops at the first embed failure", func(t *testing.T) {
		repo := new(MockMemoryRepository)
		llm := new(MockLLM)

		f1 := domain.MemoryFact{ID: uuid.New(), Content: "one"}
		f2 := domain.MemoryFact{ID: uuid.New(), Content: "two"}

		repo.On("ListMissingEmbeddings", mock.Anything, 50).Return([]domain.MemoryFact{f1, f2}, nil)
		llm.On("Embed", mock.Anything, "nomic-embed-text", "one").Return([]float32{0.1}, nil)
		llm.On("Embed", mock.Anything, "nomic-embed-text", "two").Return(nil, errors.New("model crashed"))
		repo.On("SetEmbedding", mock.Anything, f1.ID, []float32{0.1}).Return(nil)

		svc := newMemoryService(repo, llm)

		n, err := svc.EmbedPending(context.Background(), 0)

		require.Error(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors score 1", func(t *testing.T) {
		assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	})

	t.Run("orthogonal vectors score 0", func(t *testing.T) {
		assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	})

	t.Run("opposite vectors score -1", func(t *testing.T) {
		assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	})

	t.Run("mismatched lengths score 0", func(t *testing.T) {
		assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	})

	t.Run("zero vectors score 0", func(t *testing.T) {
		assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 2}))
	})
}
