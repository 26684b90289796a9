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

// SkillRepository defines skill repository operations
type SkillRepository interface {
	Create(ctx context.Context, skill *domain.Skill) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Skill, error)
	GetByName(ctx context.Context, name string) (*domain.Skill, error)
	Update(ctx context.Context, skill *domain.Skill) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.SkillFilter) (*domain.SkillList, error)
	ListAll(ctx context.Context) ([]domain.Skill, error)
}

// SkillService handles the skill tree
type SkillService struct {
	skillRepo SkillRepository
}

// NewSkillService creates a new skill service
func NewSkillService(skillRepo SkillRepository) *SkillService {
	return &SkillService{skillRepo: skillRepo}
}

// Create creates a new skill
func (s *SkillService) Create(ctx context.Context, input *domain.SkillInput) (*domain.Skill, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	if _, err := s.skillRepo.GetByName(ctx, input.Name); err == nil {
		return nil, apperrors.Conflict(fmt.Sprintf("skill %q already exists", input.Name))
	} else if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check skill name: %w", err)
	}

	target := input.TargetProficiency
	if target == 0 {
		target = 0.8
	}

	now := time.Now()
	skill := &domain.Skill{
		ID:                uuid.New(),
		Name:              input.Name,
		Category:          input.Category,
		Proficiency:       input.Proficiency,
		TargetProficiency: target,
		Status:            domain.SkillStatusLearning,
		Notes:             input.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.skillRepo.Create(ctx, skill); err != nil {
		return nil, fmt.Errorf("failed to create skill: %w", err)
	}

	return skill, nil
}

// Get retrieves a skill by ID
func (s *SkillService) Get(ctx context.Context, id uuid.UUID) (*domain.Skill, error) {
	return s.skillRepo.GetByID(ctx, id)
}

// Update applies a partial update to a skill
func (s *SkillService) Update(ctx context.Context, id uuid.UUID, input *domain.SkillUpdateInput) (*domain.Skill, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	skill, err := s.skillRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		skill.Name = *input.Name
	}
	if input.Category != nil {
		skill.Category = *input.Category
	}
	if input.Proficiency != nil {
		skill.Proficiency = *input.Proficiency
	}
	if input.TargetProficiency != nil {
		skill.TargetProficiency = *input.TargetProficiency
	}
	if input.Notes != nil {
		skill.Notes = *input.Notes
	}

	skill.UpdatedAt = time.Now()

	if err := s.skillRepo.Update(ctx, skill); err != nil {
		return nil, fmt.Errorf("failed to update skill: %w", err)
	}

	return skill, nil
}

// Delete deletes a skill
func (s *SkillService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.skillRepo.Delete(ctx, id)
}

// List retrieves skills matching the filter
func (s *SkillService) List(ctx context.Context, filter *domain.SkillFilter) (*domain.SkillList, error) {
	return s.skillRepo.List(ctx, filter)
}

// RecordPractice applies one practice session to a skill
func (s *SkillService) RecordPractice(ctx context.Context, id uuid.UUID) (*domain.Skill, error) {
	skill, err := s.skillRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	skill.RecordPractice(time.Now())
	skill.UpdatedAt = time.Now()

	if err := s.skillRepo.Update(ctx, skill); err != nil {
		return nil, fmt.Errorf("failed to record practice: %w", err)
	}

	return skill, nil
}

// DecayAll applies idle decay across the whole skill tree and returns
// how many skills changed. Run by the nightly cleanup job.
func (s *SkillService) DecayAll(ctx context.Context, asOf time.Time) (int, error) {
	skills, err := s.skillRepo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list skills: %w", err)
	}

	decayed := 0
	for i := range skills {
		skill := &skills[i]
		if !skill.Decay(asOf) {
			continue
		}
		skill.UpdatedAt = asOf
		if err := s.skillRepo.Update(ctx, skill); err != nil {
			return decayed, fmt.Errorf("failed to persist decay for %s: %w", skill.Name, err)
		}
		decayed++
	}

	return decayed, nil
}
