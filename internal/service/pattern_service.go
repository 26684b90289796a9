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

// PatternRepository defines pattern repository operations
type PatternRepository interface {
	Create(ctx context.Context, pattern *domain.Pattern) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Pattern, error)
	Update(ctx context.Context, pattern *domain.Pattern) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.PatternFilter) (*domain.PatternList, error)
	ListActive(ctx context.Context, minConfidence float64, limit int) ([]domain.Pattern, error)
	ListAll(ctx context.Context) ([]domain.Pattern, error)
}

// PatternService handles observed behavioral patterns
type PatternService struct {
	patternRepo PatternRepository
}

// NewPatternService creates a new pattern service
func NewPatternService(patternRepo PatternRepository) *PatternService {
	return &PatternService{patternRepo: patternRepo}
}

// Create records a newly observed pattern
func (s *PatternService) Create(ctx context.Context, input *domain.PatternInput) (*domain.Pattern, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if !input.Kind.IsValid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid kind %q", input.Kind))
	}

	confidence := input.Confidence
	if confidence == 0 {
		confidence = 0.3
	}

	now := time.Now()
	pattern := &domain.Pattern{
		ID:                   uuid.New(),
		Kind:                 input.Kind,
		Description:          input.Description,
		Confidence:           confidence,
		EvidenceCount:        1,
		FirstObservedAt:      now,
		LastObservedAt:       now,
		Active:               true,
		SourceConversationID: input.SourceConversationID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.patternRepo.Create(ctx, pattern); err != nil {
		return nil, fmt.Errorf("failed to create pattern: %w", err)
	}

	return pattern, nil
}

// Get retrieves a pattern by ID
func (s *PatternService) Get(ctx context.Context, id uuid.UUID) (*domain.Pattern, error) {
	return s.patternRepo.GetByID(ctx, id)
}

// Update applies a partial update to a pattern
func (s *PatternService) Update(ctx context.Context, id uuid.UUID, input *domain.PatternUpdateInput) (*domain.Pattern, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	pattern, err := s.patternRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Kind != nil {
		if !input.Kind.IsValid() {
			return nil, apperrors.Validation(fmt.Sprintf("invalid kind %q", *input.Kind))
		}
		pattern.Kind = *input.Kind
	}
	if input.Description != nil {
		pattern.Description = *input.Description
	}
	if input.Active != nil {
		pattern.Active = *input.Active
	}

	pattern.UpdatedAt = time.Now()

	if err := s.patternRepo.Update(ctx, pattern); err != nil {
		return nil, fmt.Errorf("failed to update pattern: %w", err)
	}

	return pattern, nil
}

// Delete deletes a pattern
func (s *PatternService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.patternRepo.Delete(ctx, id)
}

// List retrieves patterns matching the filter
func (s *PatternService) List(ctx context.Context, filter *domain.PatternFilter) (*domain.PatternList, error) {
	return s.patternRepo.List(ctx, filter)
}

// ListActive retrieves active patterns above a confidence threshold
func (s *PatternService) ListActive(ctx context.Context, minConfidence float64, limit int) ([]domain.Pattern, error) {
	return s.patternRepo.ListActive(ctx, minConfidence, limit)
}

// Reinforce records a supporting observation for a pattern
func (s *PatternService) Reinforce(ctx context.Context, id uuid.UUID) (*domain.Pattern, error) {
	pattern, err := s.patternRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pattern.Reinforce(time.Now())
	pattern.UpdatedAt = time.Now()

	if err := s.patternRepo.Update(ctx, pattern); err != nil {
		return nil, fmt.Errorf("failed to reinforce pattern: %w", err)
	}

	return pattern, nil
}

// Contradict records a contradicting observation for a pattern
func (s *PatternService) Contradict(ctx context.Context, id uuid.UUID) (*domain.Pattern, error) {
	pattern, err := s.patternRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pattern.Contradict()
	pattern.UpdatedAt = time.Now()

	if err := s.patternRepo.Update(ctx, pattern); err != nil {
		return nil, fmt.Errorf("failed to update pattern: %w", err)
	}

	return pattern, nil
}

// DecayAll erodes confidence across stale patterns and returns how many
// changed. Run by the nightly cleanup job.
func (s *PatternService) DecayAll(ctx context.Context, asOf time.Time) (int, error) {
	patterns, err := s.patternRepo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list patterns: %w", err)
	}

	decayed := 0
	for i := range patterns {
		pattern := &patterns[i]
		if !pattern.Decay(asOf) {
			continue
		}
		pattern.UpdatedAt = asOf
		if err := s.patternRepo.Update(ctx, pattern); err != nil {
			return decayed, fmt.Errorf("failed to persist decay for pattern %s: %w", pattern.ID, err)
		}
		decayed++
	}

	return decayed, nil
}
