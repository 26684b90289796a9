package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/domain"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
	"github.com/angelahq/angela/internal/validator"
)

// candidateFetchLimit bounds how many stored facts one search ranks.
// The store is personal-scale; hundreds, not millions.
const candidateFetchLimit = 500

// MemoryRepository defines memory fact repository operations
type MemoryRepository interface {
	Create(ctx context.Context, fact *domain.MemoryFact) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.MemoryFact, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.MemoryFilter) (*domain.MemoryList, error)
	ListCandidates(ctx context.Context, category *domain.MemoryCategory, limit int) ([]domain.MemoryFact, error)
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
	ListMissingEmbeddings(ctx context.Context, limit int) ([]domain.MemoryFact, error)
	BumpRecall(ctx context.Context, ids []uuid.UUID) error
}

// MemoryService handles long-term memory: storing facts, embedding them
// and recalling them by semantic similarity
type MemoryService struct {
	memoryRepo MemoryRepository
	llm        LLM
	ollamaCfg  config.OllamaConfig
	chatCfg    config.ChatConfig
	logger     *zap.Logger
}

// NewMemoryService creates a new memory service
func NewMemoryService(memoryRepo MemoryRepository, llm LLM, ollamaCfg config.OllamaConfig, chatCfg config.ChatConfig, logger *zap.Logger) *MemoryService {
	return &MemoryService{
		memoryRepo: memoryRepo,
		llm:        llm,
		ollamaCfg:  ollamaCfg,
		chatCfg:    chatCfg,
		logger:     logger,
	}
}

// Remember stores a new memory fact. The fact is embedded inline when
// the model server is up; otherwise it is stored unembedded and the
// backfill job picks it up later.
func (s *MemoryService) Remember(ctx context.Context, input *domain.MemoryInput) (*domain.MemoryFact, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	category := input.Category
	if category == "" {
		category = domain.MemoryCategoryFact
	}
	if !category.IsValid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid category %q", category))
	}

	importance := input.Importance
	if importance == 0 {
		importance = 3
	}

	now := time.Now()
	fact := &domain.MemoryFact{
		ID:                   uuid.New(),
		Content:              input.Content,
		Category:             category,
		Importance:           importance,
		SourceConversationID: input.SourceConversationID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	embedding, err := s.llm.Embed(ctx, s.ollamaCfg.EmbedModel, input.Content)
	switch {
	case err == nil:
		fact.Embedding = embedding
		fact.HasEmbedding = true
	case apperrors.IsUnavailable(err):
		s.logger.Warn("storing memory without embedding, model server down",
			zap.String("factId", fact.ID.String()))
	default:
		return nil, err
	}

	if err := s.memoryRepo.Create(ctx, fact); err != nil {
		return nil, fmt.Errorf("failed to store memory: %w", err)
	}

	return fact, nil
}

// Get retrieves a memory fact by ID
func (s *MemoryService) Get(ctx context.Context, id uuid.UUID) (*domain.MemoryFact, error) {
	return s.memoryRepo.GetByID(ctx, id)
}

// Forget deletes a memory fact
func (s *MemoryService) Forget(ctx context.Context, id uuid.UUID) error {
	return s.memoryRepo.Delete(ctx, id)
}

// List retrieves memory facts matching the filter
func (s *MemoryService) List(ctx context.Context, filter *domain.MemoryFilter) (*domain.MemoryList, error) {
	return s.memoryRepo.List(ctx, filter)
}

// Search recalls memories semantically related to the query, ranked by
// cosine similarity. Recall counters are bumped off the request path.
func (s *MemoryService) Search(ctx context.Context, input *domain.MemorySearchInput) ([]domain.MemorySearchResult, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	limit := input.Limit
	if limit <= 0 {
		limit = s.chatCfg.MemoryRecall
	}
	if limit <= 0 {
		limit = 5
	}

	minSimilarity := input.MinSimilarity
	if minSimilarity == 0 {
		minSimilarity = s.chatCfg.MinSimilarity
	}

	queryVec, err := s.llm.Embed(ctx, s.ollamaCfg.EmbedModel, input.Query)
	if err != nil {
		return nil, err
	}

	candidates, err := s.memoryRepo.ListCandidates(ctx, input.Category, candidateFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	results := make([]domain.MemorySearchResult, 0, limit)
	for _, fact := range candidates {
		if !fact.HasEmbedding {
			continue
		}
		similarity := cosineSimilarity(queryVec, fact.Embedding)
		if similarity < minSimilarity {
			continue
		}
		results = append(results, domain.MemorySearchResult{Fact: fact, Similarity: similarity})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > limit {
		results = results[:limit]
	}

	if len(results) > 0 {
		ids := make([]uuid.UUID, len(results))
		for i, r := range results {
			ids[i] = r.Fact.ID
		}
		go func() {
			if err := s.memoryRepo.BumpRecall(context.Background(), ids); err != nil {
				s.logger.Warn("failed to bump recall counters", zap.Error(err))
			}
		}()
	}

	return results, nil
}

// EmbedPending backfills embeddings for facts stored while the model
// server was down. Returns how many facts were embedded.
func (s *MemoryService) EmbedPending(ctx context.Context, batch int) (int, error) {
	if batch <= 0 {
		batch = 50
	}

	facts, err := s.memoryRepo.ListMissingEmbeddings(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("failed to list unembedded facts: %w", err)
	}

	embedded := 0
	for _, fact := range facts {
		vec, err := s.llm.Embed(ctx, s.ollamaCfg.EmbedModel, fact.Content)
		if err != nil {
			return embedded, err
		}
		if err := s.memoryRepo.SetEmbedding(ctx, fact.ID, vec); err != nil {
			return embedded, fmt.Errorf("failed to store embedding for %s: %w", fact.ID, err)
		}
		embedded++
	}

	return embedded, nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-magnitude vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
