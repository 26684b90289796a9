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

// SkillRepository handles skill data operations in PostgreSQL
type SkillRepository struct {
	db *database.PostgresDB
}

// NewSkillRepository creates a new skill repository
func NewSkillRepository(db *database.PostgresDB) *SkillRepository {
	return &SkillRepository{db: db}
}

// Create creates a new skill
func (r *SkillRepository) Create(ctx context.Context, skill *domain.Skill) error {
	query := `
		INSERT INTO skills (id, name, category, proficiency, target_proficiency, practice_count, last_practiced_at, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		skill.ID,
		skill.Name,
		skill.Category,
		skill.Proficiency,
		skill.TargetProficiency,
		skill.PracticeCount,
		skill.LastPracticedAt,
		skill.Status,
		skill.Notes,
		skill.CreatedAt,
		skill.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create skill: %w", err)
	}

	return nil
}

// GetByID retrieves a skill by ID
func (r *SkillRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Skill, error) {
	query := `
		SELECT id, name, category, proficiency, target_proficiency, practice_count, last_practiced_at, status, notes, created_at, updated_at
		FROM skills
		WHERE id = $1
	`

	var skill domain.Skill
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&skill.ID,
		&skill.Name,
		&skill.Category,
		&skill.Proficiency,
		&skill.TargetProficiency,
		&skill.PracticeCount,
		&skill.LastPracticedAt,
		&skill.Status,
		&skill.Notes,
		&skill.CreatedAt,
		&skill.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("skill")
		}
		return nil, fmt.Errorf("failed to get skill: %w", err)
	}

	return &skill, nil
}

// GetByName retrieves a skill by its name (names are unique)
func (r *SkillRepository) GetByName(ctx context.Context, name string) (*domain.Skill, error) {
	query := `
		SELECT id, name, category, proficiency, target_proficiency, practice_count, last_practiced_at, status, notes, created_at, updated_at
		FROM skills
		WHERE LOWER(name) = LOWER($1)
	`

	var skill domain.Skill
	err := r.db.Pool.QueryRow(ctx, query, name).Scan(
		&skill.ID,
		&skill.Name,
		&skill.Category,
		&skill.Proficiency,
		&skill.TargetProficiency,
		&skill.PracticeCount,
		&skill.LastPracticedAt,
		&skill.Status,
		&skill.Notes,
		&skill.CreatedAt,
		&skill.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("skill")
		}
		return nil, fmt.Errorf("failed to get skill: %w", err)
	}

	return &skill, nil
}

// Update updates a skill
func (r *SkillRepository) Update(ctx context.Context, skill *domain.Skill) error {
	query := `
		UPDATE skills
		SET name = $2, category = $3, proficiency = $4, target_proficiency = $5, practice_count = $6,
		    last_practiced_at = $7, status = $8, notes = $9, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		skill.ID,
		skill.Name,
		skill.Category,
		skill.Proficiency,
		skill.TargetProficiency,
		skill.PracticeCount,
		skill.LastPracticedAt,
		skill.Status,
		skill.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update skill: %w", err)
	}

	return nil
}

// Delete deletes a skill
func (r *SkillRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM skills WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete skill: %w", err)
	}

	return nil
}

// List retrieves skills with filtering
func (r *SkillRepository) List(ctx context.Context, filter *domain.SkillFilter) (*domain.SkillList, error) {
	baseQuery := `FROM skills WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.Category != nil {
		baseQuery += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, *filter.Category)
		argIndex++
	}
	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count skills: %w", err)
	}

	// Get skills
	query := fmt.Sprintf(`
		SELECT id, name, category, proficiency, target_proficiency, practice_count, last_practiced_at, status, notes, created_at, updated_at
		%s
		ORDER BY proficiency DESC, name ASC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	var skills []domain.Skill
	for rows.Next() {
		var skill domain.Skill
		if err := rows.Scan(
			&skill.ID,
			&skill.Name,
			&skill.Category,
			&skill.Proficiency,
			&skill.TargetProficiency,
			&skill.PracticeCount,
			&skill.LastPracticedAt,
			&skill.Status,
			&skill.Notes,
			&skill.CreatedAt,
			&skill.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, skill)
	}

	return &domain.SkillList{
		Skills:     skills,
		TotalCount: totalCount,
		HasMore:    int64(filter.Offset+len(skills)) < totalCount,
	}, nil
}

// ListAll retrieves every skill, for the decay sweep
func (r *SkillRepository) ListAll(ctx context.Context) ([]domain.Skill, error) {
	query := `
		SELECT id, name, category, proficiency, target_proficiency, practice_count, last_practiced_at, status, notes, created_at, updated_at
		FROM skills
		ORDER BY name ASC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	var skills []domain.Skill
	for rows.Next() {
		var skill domain.Skill
		if err := rows.Scan(
			&skill.ID,
			&skill.Name,
			&skill.Category,
			&skill.Proficiency,
			&skill.TargetProficiency,
			&skill.PracticeCount,
			&skill.LastPracticedAt,
			&skill.Status,
			&skill.Notes,
			&skill.CreatedAt,
			&skill.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, skill)
	}

	return skills, nil
}

// Stats returns aggregate skill statistics
func (r *SkillRepository) Stats(ctx context.Context) (*domain.SkillStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'mastered'),
		       COALESCE(AVG(proficiency), 0)
		FROM skills
	`

	var stats domain.SkillStats
	err := r.db.Pool.QueryRow(ctx, query).Scan(&stats.Total, &stats.Mastered, &stats.AvgProficiency)
	if err != nil {
		return nil, fmt.Errorf("failed to get skill stats: %w", err)
	}

	return &stats, nil
}
