package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/pkg/database"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

// ProjectRepository handles project data operations in PostgreSQL
type ProjectRepository struct {
	db *database.PostgresDB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *database.PostgresDB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	query := `
		INSERT INTO projects (id, name, slug, description, status, priority, tags, deadline, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		project.ID,
		project.Name,
		project.Slug,
		project.Description,
		project.Status,
		project.Priority,
		project.Tags,
		project.Deadline,
		project.Notes,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := `
		SELECT id, name, slug, description, status, priority, tags, deadline, notes, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	var project domain.Project
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.Slug,
		&project.Description,
		&project.Status,
		&project.Priority,
		&project.Tags,
		&project.Deadline,
		&project.Notes,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("project")
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

// GetBySlug retrieves a project by slug
func (r *ProjectRepository) GetBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	query := `
		SELECT id, name, slug, description, status, priority, tags, deadline, notes, created_at, updated_at
		FROM projects
		WHERE slug = $1
	`

	var project domain.Project
	err := r.db.Pool.QueryRow(ctx, query, slug).Scan(
		&project.ID,
		&project.Name,
		&project.Slug,
		&project.Description,
		&project.Status,
		&project.Priority,
		&project.Tags,
		&project.Deadline,
		&project.Notes,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("project")
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

// SlugExists checks if a slug is already taken
func (r *ProjectRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM projects WHERE slug = $1)`

	var exists bool
	err := r.db.Pool.QueryRow(ctx, query, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}

	return exists, nil
}

// Update updates a project
func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	query := `
		UPDATE projects
		SET name = $2, description = $3, status = $4, priority = $5, tags = $6, deadline = $7, notes = $8, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.Status,
		project.Priority,
		project.Tags,
		project.Deadline,
		project.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	return nil
}

// Delete deletes a project
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM projects WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// List retrieves projects with filtering
func (r *ProjectRepository) List(ctx context.Context, filter *domain.ProjectFilter) (*domain.ProjectList, error) {
	baseQuery := `FROM projects WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.Tag != nil {
		baseQuery += fmt.Sprintf(" AND $%d = ANY(tags)", argIndex)
		args = append(args, *filter.Tag)
		argIndex++
	}
	if filter.Search != nil {
		baseQuery += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	// Get projects
	query := fmt.Sprintf(`
		SELECT id, name, slug, description, status, priority, tags, deadline, notes, created_at, updated_at
		%s
		ORDER BY priority DESC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var project domain.Project
		if err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.Slug,
			&project.Description,
			&project.Status,
			&project.Priority,
			&project.Tags,
			&project.Deadline,
			&project.Notes,
			&project.CreatedAt,
			&project.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return &domain.ProjectList{
		Projects:   projects,
		TotalCount: totalCount,
		HasMore:    int64(filter.Offset+len(projects)) < totalCount,
	}, nil
}

// CountByStatus returns project counts grouped by status
func (r *ProjectRepository) CountByStatus(ctx context.Context) (map[domain.ProjectStatus]int64, error) {
	query := `SELECT status, COUNT(*) FROM projects GROUP BY status`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ProjectStatus]int64)
	for rows.Next() {
		var status domain.ProjectStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = count
	}

	return counts, nil
}
