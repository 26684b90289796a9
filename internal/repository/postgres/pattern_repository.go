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

// PatternRepository handles behavioral pattern data operations in PostgreSQL
type PatternRepository struct {
	db *database.PostgresDB
}

// NewPatternRepository creates a new pattern repository
func NewPatternRepository(db *database.PostgresDB) *PatternRepository {
	return &PatternRepository{db: db}
}

// Create creates a new pattern
func (r *PatternRepository) Create(ctx context.Context, pattern *domain.Pattern) error {
	query := `
		INSERT INTO patterns (id, kind, description, confidence, evidence_count, first_observed_at, last_observed_at, active, source_conversation_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		pattern.ID,
		pattern.Kind,
		pattern.Description,
		pattern.Confidence,
		pattern.EvidenceCount,
		pattern.FirstObservedAt,
		pattern.LastObservedAt,
		pattern.Active,
		pattern.SourceConversationID,
		pattern.CreatedAt,
		pattern.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pattern: %w", err)
	}

	return nil
}

// GetByID retrieves a pattern by ID
func (r *PatternRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Pattern, error) {
	query := `
		SELECT id, kind, description, confidence, evidence_count, first_observed_at, last_observed_at, active, source_conversation_id, created_at, updated_at
		FROM patterns
		WHERE id = $1
	`

	var pattern domain.Pattern
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&pattern.ID,
		&pattern.Kind,
		&pattern.Description,
		&pattern.Confidence,
		&pattern.EvidenceCount,
		&pattern.FirstObservedAt,
		&pattern.LastObservedAt,
		&pattern.Active,
		&pattern.SourceConversationID,
		&pattern.CreatedAt,
		&pattern.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("pattern")
		}
		return nil, fmt.Errorf("failed to get pattern: %w", err)
	}

	return &pattern, nil
}

// Update updates a pattern
func (r *PatternRepository) Update(ctx context.Context, pattern *domain.Pattern) error {
	query := `
		UPDATE patterns
		SET kind = $2, description = $3, confidence = $4, evidence_count = $5, last_observed_at = $6, active = $7, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		pattern.ID,
		pattern.Kind,
		pattern.Description,
		pattern.Confidence,
		pattern.EvidenceCount,
		pattern.LastObservedAt,
		pattern.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to update pattern: %w", err)
	}

	return nil
}

// Delete deletes a pattern
func (r *PatternRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM patterns WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete pattern: %w", err)
	}

	return nil
}

// List retrieves patterns with filtering
func (r *PatternRepository) List(ctx context.Context, filter *domain.PatternFilter) (*domain.PatternList, error) {
	baseQuery := `FROM patterns WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.Kind != nil {
		baseQuery += fmt.Sprintf(" AND kind = $%d", argIndex)
		args = append(args, *filter.Kind)
		argIndex++
	}
	if filter.Active != nil {
		baseQuery += fmt.Sprintf(" AND active = $%d", argIndex)
		args = append(args, *filter.Active)
		argIndex++
	}
	if filter.MinConfidence != nil {
		baseQuery += fmt.Sprintf(" AND confidence >= $%d", argIndex)
		args = append(args, *filter.MinConfidence)
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count patterns: %w", err)
	}

	// Get patterns
	query := fmt.Sprintf(`
		SELECT id, kind, description, confidence, evidence_count, first_observed_at, last_observed_at, active, source_conversation_id, created_at, updated_at
		%s
		ORDER BY confidence DESC, last_observed_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	defer rows.Close()

	var patterns []domain.Pattern
	for rows.Next() {
		var pattern domain.Pattern
		if err := rows.Scan(
			&pattern.ID,
			&pattern.Kind,
			&pattern.Description,
			&pattern.Confidence,
			&pattern.EvidenceCount,
			&pattern.FirstObservedAt,
			&pattern.LastObservedAt,
			&pattern.Active,
			&pattern.SourceConversationID,
			&pattern.CreatedAt,
			&pattern.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, pattern)
	}

	return &domain.PatternList{
		Patterns:   patterns,
		TotalCount: totalCount,
		HasMore:    int64(filter.Offset+len(patterns)) < totalCount,
	}, nil
}

// ListActive retrieves active patterns above a confidence threshold,
// strongest first
func (r *PatternRepository) ListActive(ctx context.Context, minConfidence float64, limit int) ([]domain.Pattern, error) {
	query := `
		SELECT id, kind, description, confidence, evidence_count, first_observed_at, last_observed_at, active, source_conversation_id, created_at, updated_at
		FROM patterns
		WHERE active = TRUE AND confidence >= $1
		ORDER BY confidence DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, minConfidence, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list active patterns: %w", err)
	}
	defer rows.Close()

	var patterns []domain.Pattern
	for rows.Next() {
		var pattern domain.Pattern
		if err := rows.Scan(
			&pattern.ID,
			&pattern.Kind,
			&pattern.Description,
			&pattern.Confidence,
			&pattern.EvidenceCount,
			&pattern.FirstObservedAt,
			&pattern.LastObservedAt,
			&pattern.Active,
			&pattern.SourceConversationID,
			&pattern.CreatedAt,
			&pattern.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, pattern)
	}

	return patterns, nil
}

// ListAll retrieves every pattern, for the decay sweep
func (r *PatternRepository) ListAll(ctx context.Context) ([]domain.Pattern, error) {
	query := `
		SELECT id, kind, description, confidence, evidence_count, first_observed_at, last_observed_at, active, source_conversation_id, created_at, updated_at
		FROM patterns
		ORDER BY last_observed_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list patterns: %w", err)
	}
	defer rows.Close()

	var patterns []domain.Pattern
	for rows.Next() {
		var pattern domain.Pattern
		if err := rows.Scan(
			&pattern.ID,
			&pattern.Kind,
			&pattern.Description,
			&pattern.Confidence,
			&pattern.EvidenceCount,
			&pattern.FirstObservedAt,
			&pattern.LastObservedAt,
			&pattern.Active,
			&pattern.SourceConversationID,
			&pattern.CreatedAt,
			&pattern.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		patterns = append(patterns, pattern)
	}

	return patterns, nil
}

// Stats returns aggregate pattern statistics over active patterns
func (r *PatternRepository) Stats(ctx context.Context) (*domain.PatternStats, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE active),
		       COALESCE(AVG(confidence) FILTER (WHERE active), 0)
		FROM patterns
	`

	var stats domain.PatternStats
	err := r.db.Pool.QueryRow(ctx, query).Scan(&stats.Active, &stats.AvgConfidence)
	if err != nil {
		return nil, fmt.Errorf("failed to get pattern stats: %w", err)
	}

	return &stats, nil
}
