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

// MemoryRepository handles long-term memory fact operations in PostgreSQL.
// Embeddings are stored as float4[] and ranked in the service layer.
type MemoryRepository struct {
	db *database.PostgresDB
}

// NewMemoryRepository creates a new memory repository
func NewMemoryRepository(db *database.PostgresDB) *MemoryRepository {
	return &MemoryRepository{db: db}
}

// Create stores a new memory fact
func (r *MemoryRepository) Create(ctx context.Context, fact *domain.MemoryFact) error {
	query := `
		INSERT INTO memory_facts (id, content, category, importance, embedding, has_embedding, source_conversation_id, recall_count, last_recalled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		fact.ID,
		fact.Content,
		fact.Category,
		fact.Importance,
		fact.Embedding,
		fact.HasEmbedding,
		fact.SourceConversationID,
		fact.RecallCount,
		fact.LastRecalledAt,
		fact.CreatedAt,
		fact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create memory fact: %w", err)
	}

	return nil
}

// GetByID retrieves a memory fact by ID, including its embedding
func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MemoryFact, error) {
	query := `
		SELECT id, content, category, importance, embedding, has_embedding, source_conversation_id, recall_count, last_recalled_at, created_at, updated_at
		FROM memory_facts
		WHERE id = $1
	`

	var fact domain.MemoryFact
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&fact.ID,
		&fact.Content,
		&fact.Category,
		&fact.Importance,
		&fact.Embedding,
		&fact.HasEmbedding,
		&fact.SourceConversationID,
		&fact.RecallCount,
		&fact.LastRecalledAt,
		&fact.CreatedAt,
		&fact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("memory fact")
		}
		return nil, fmt.Errorf("failed to get memory fact: %w", err)
	}

	return &fact, nil
}

// Delete removes a memory fact
func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM memory_facts WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete memory fact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("memory fact")
	}

	return nil
}

// List retrieves memory facts with filtering, without embeddings
func (r *MemoryRepository) List(ctx context.Context, filter *domain.MemoryFilter) (*domain.MemoryList, error) {
	baseQuery := `FROM memory_facts WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.Category != nil {
		baseQuery += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, *filter.Category)
		argIndex++
	}
	if filter.MinImportance != nil {
		baseQuery += fmt.Sprintf(" AND importance >= $%d", argIndex)
		args = append(args, *filter.MinImportance)
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count memory facts: %w", err)
	}

	// Get facts
	query := fmt.Sprintf(`
		SELECT id, content, category, importance, has_embedding, source_conversation_id, recall_count, last_recalled_at, created_at, updated_at
		%s
		ORDER BY importance DESC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory facts: %w", err)
	}
	defer rows.Close()

	var facts []domain.MemoryFact
	for rows.Next() {
		var fact domain.MemoryFact
		if err := rows.Scan(
			&fact.ID,
			&fact.Content,
			&fact.Category,
			&fact.Importance,
			&fact.HasEmbedding,
			&fact.SourceConversationID,
			&fact.RecallCount,
			&fact.LastRecalledAt,
			&fact.CreatedAt,
			&fact.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan memory fact: %w", err)
		}
		facts = append(facts, fact)
	}

	return &domain.MemoryList{
		Facts:      facts,
		TotalCount: totalCount,
		HasMore:    int64(filter.Offset+len(facts)) < totalCount,
	}, nil
}

// ListCandidates retrieves embedded facts for similarity ranking, most
// important and freshest first. Category narrows the candidate pool.
func (r *MemoryRepository) ListCandidates(ctx context.Context, category *domain.MemoryCategory, limit int) ([]domain.MemoryFact, error) {
	query := `
		SELECT id, content, category, importance, embedding, has_embedding, source_conversation_id, recall_count, last_recalled_at, created_at, updated_at
		FROM memory_facts
		WHERE has_embedding = TRUE
	`
	args := []interface{}{}
	argIndex := 1

	if category != nil {
		query += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, *category)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY importance DESC, created_at DESC LIMIT $%d", argIndex)
	args = append(args, limit)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory candidates: %w", err)
	}
	defer rows.Close()

	var facts []domain.MemoryFact
	for rows.Next() {
		var fact domain.MemoryFact
		if err := rows.Scan(
			&fact.ID,
			&fact.Content,
			&fact.Category,
			&fact.Importance,
			&fact.Embedding,
			&fact.HasEmbedding,
			&fact.SourceConversationID,
			&fact.RecallCount,
			&fact.LastRecalledAt,
			&fact.CreatedAt,
			&fact.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan memory fact: %w", err)
		}
		facts = append(facts, fact)
	}

	return facts, nil
}

// SetEmbedding stores the embedding for a fact and marks it embedded
func (r *MemoryRepository) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	query := `UPDATE memory_facts SET embedding = $2, has_embedding = TRUE, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, id, embedding)
	if err != nil {
		return fmt.Errorf("failed to set embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("memory fact")
	}

	return nil
}

// ListMissingEmbeddings retrieves facts awaiting an embedding, oldest first
func (r *MemoryRepository) ListMissingEmbeddings(ctx context.Context, limit int) ([]domain.MemoryFact, error) {
	query := `
		SELECT id, content, category, importance, has_embedding, source_conversation_id, recall_count, last_recalled_at, created_at, updated_at
		FROM memory_facts
		WHERE has_embedding = FALSE
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unembedded facts: %w", err)
	}
	defer rows.Close()

	var facts []domain.MemoryFact
	for rows.Next() {
		var fact domain.MemoryFact
		if err := rows.Scan(
			&fact.ID,
			&fact.Content,
			&fact.Category,
			&fact.Importance,
			&fact.HasEmbedding,
			&fact.SourceConversationID,
			&fact.RecallCount,
			&fact.LastRecalledAt,
			&fact.CreatedAt,
			&fact.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan memory fact: %w", err)
		}
		facts = append(facts, fact)
	}

	return facts, nil
}

// BumpRecall increments recall counters for the given facts
func (r *MemoryRepository) BumpRecall(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE memory_facts
		SET recall_count = recall_count + 1, last_recalled_at = NOW()
		WHERE id = ANY($1)
	`

	_, err := r.db.Pool.Exec(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to bump recall counters: %w", err)
	}

	return nil
}

// Stats returns memory fact totals
func (r *MemoryRepository) Stats(ctx context.Context) (*domain.MemoryStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE has_embedding = FALSE)
		FROM memory_facts
	`

	var stats domain.MemoryStats
	err := r.db.Pool.QueryRow(ctx, query).Scan(&stats.Facts, &stats.MissingEmbedding)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory stats: %w", err)
	}

	return &stats, nil
}
