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

// ProjectRepository defines project repository operations
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Project, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *domain.ProjectFilter) (*domain.ProjectList, error)
}

// ProjectService handles personal project tracking
type ProjectService struct {
	projectRepo ProjectRepository
}

// NewProjectService creates a new project service
func NewProjectService(projectRepo ProjectRepository) *ProjectService {
	return &ProjectService{projectRepo: projectRepo}
}

// Create creates a new project
func (s *ProjectService) Create(ctx context.Context, input *domain.ProjectInput) (*domain.Project, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	slug := input.Slug
	if slug == "" {
		slug = domain.GenerateSlug(input.Name)
	}
	if slug == "" {
		return nil, apperrors.Validation("name must contain at least one letter or digit")
	}

	exists, err := s.projectRepo.SlugExists(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if exists {
		if input.Slug != "" {
			return nil, apperrors.Conflict(fmt.Sprintf("slug %q is already in use", input.Slug))
		}
		slug = fmt.Sprintf("%s-%s", slug, uuid.New().String()[:8])
	}

	priority := input.Priority
	if priority == 0 {
		priority = 3
	}

	now := time.Now()
	project := &domain.Project{
		ID:          uuid.New(),
		Name:        input.Name,
		Slug:        slug,
		Description: input.Description,
		Status:      domain.ProjectStatusActive,
		Priority:    priority,
		Tags:        input.Tags,
		Deadline:    input.Deadline,
		Notes:       input.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// Get retrieves a project by ID
func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	return s.projectRepo.GetByID(ctx, id)
}

// GetBySlug retrieves a project by slug
func (s *ProjectService) GetBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	return s.projectRepo.GetBySlug(ctx, slug)
}

// Update applies a partial update to a project
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, input *domain.ProjectUpdateInput) (*domain.Project, error) {
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, apperrors.Validation(fmt.Sprintf("invalid status %q", *input.Status))
		}
		project.Status = *input.Status
	}
	if input.Priority != nil {
		project.Priority = *input.Priority
	}
	if input.Tags != nil {
		project.Tags = input.Tags
	}
	if input.Deadline != nil {
		project.Deadline = input.Deadline
	}
	if input.Notes != nil {
		project.Notes = *input.Notes
	}

	project.UpdatedAt = time.Now()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// Delete deletes a project
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.projectRepo.Delete(ctx, id)
}

// List retrieves projects matching the filter
func (s *ProjectService) List(ctx context.Context, filter *domain.ProjectFilter) (*domain.ProjectList, error) {
	return s.projectRepo.List(ctx, filter)
}
