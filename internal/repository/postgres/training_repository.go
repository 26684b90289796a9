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

// TrainingRepository handles fine-tuning example and run data operations
// in PostgreSQL
type TrainingRepository struct {
	db *database.PostgresDB
}

// NewTrainingRepository creates a new training repository
func NewTrainingRepository(db *database.PostgresDB) *TrainingRepository {
	return &TrainingRepository{db: db}
}

const trainingExampleColumns = `id, prompt, response, system_prompt, source, conversation_id, status, quality, tags, run_id, created_at, updated_at`

func scanTrainingExample(row pgx.Row) (*domain.TrainingExample, error) {
	var example domain.TrainingExample
	err := row.Scan(
		&example.ID,
		&example.Prompt,
		&example.Response,
		&example.SystemPrompt,
		&example.Source,
		&example.ConversationID,
		&example.Status,
		&example.Quality,
		&example.Tags,
		&example.RunID,
		&example.CreatedAt,
		&example.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &example, nil
}

// CreateExample creates a new training example
func (r *TrainingRepository) CreateExample(ctx context.Context, example *domain.TrainingExample) error {
	query := `
		INSERT INTO training_examples (id, prompt, response, system_prompt, source, conversation_id, status, quality, tags, run_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		example.ID,
		example.Prompt,
		example.Response,
		example.SystemPrompt,
		example.Source,
		example.ConversationID,
		example.Status,
		example.Quality,
		example.Tags,
		example.RunID,
		example.CreatedAt,
		example.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create training example: %w", err)
	}

	return nil
}

// GetExampleByID retrieves a training example by ID
func (r *TrainingRepository) GetExampleByID(ctx context.Context, id uuid.UUID) (*domain.TrainingExample, error) {
	query := `SELECT ` + trainingExampleColumns + ` FROM training_examples WHERE id = $1`

	example, err := scanTrainingExample(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("training example")
		}
		return nil, fmt.Errorf("failed to get training example: %w", err)
	}

	return example, nil
}

// UpdateExample updates a training example
func (r *TrainingRepository) UpdateExample(ctx context.Context, example *domain.TrainingExample) error {
	query := `
		UPDATE training_examples
		SET prompt = $2, response = $3, system_prompt = $4, status = $5, quality = $6, tags = $7, run_id = $8, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		example.ID,
		example.Prompt,
		example.Response,
		example.SystemPrompt,
		example.Status,
		example.Quality,
		example.Tags,
		example.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to update training example: %w", err)
	}

	return nil
}

// DeleteExample deletes a training example
func (r *TrainingRepository) DeleteExample(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM training_examples WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete training example: %w", err)
	}

	return nil
}

// ListExamples retrieves training examples with filtering
func (r *TrainingRepository) ListExamples(ctx context.Context, filter *domain.TrainingExampleFilter) (*domain.TrainingExampleList, error) {
	baseQuery := `FROM training_examples WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.Source != nil {
		baseQuery += fmt.Sprintf(" AND source = $%d", argIndex)
		args = append(args, *filter.Source)
		argIndex++
	}
	if filter.ConversationID != nil {
		baseQuery += fmt.Sprintf(" AND conversation_id = $%d", argIndex)
		args = append(args, *filter.ConversationID)
		argIndex++
	}
	if filter.MinQuality != nil {
		baseQuery += fmt.Sprintf(" AND quality >= $%d", argIndex)
		args = append(args, *filter.MinQuality)
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count training examples: %w", err)
	}

	// Get examples
	query := fmt.Sprintf(`
		SELECT %s
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, trainingExampleColumns, baseQuery, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list training examples: %w", err)
	}
	defer rows.Close()

	var examples []domain.TrainingExample
	for rows.Next() {
		example, err := scanTrainingExample(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training example: %w", err)
		}
		examples = append(examples, *example)
	}

	return &domain.TrainingExampleList{
		Examples:   examples,
		TotalCount: totalCount,
		HasMore:    int64(filter.Offset+len(examples)) < totalCount,
	}, nil
}

// ListApproved retrieves every approved example, oldest first, for export
func (r *TrainingRepository) ListApproved(ctx context.Context) ([]domain.TrainingExample, error) {
	query := `
		SELECT ` + trainingExampleColumns + `
		FROM training_examples
		WHERE status = 'approved'
		ORDER BY created_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved examples: %w", err)
	}
	defer rows.Close()

	var examples []domain.TrainingExample
	for rows.Next() {
		example, err := scanTrainingExample(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training example: %w", err)
		}
		examples = append(examples, *example)
	}

	return examples, nil
}

// MarkExported flips approved examples to exported and records the run,
// in one transaction with the run insert
func (r *TrainingRepository) MarkExported(ctx context.Context, run *domain.TrainingRun, exampleIDs []uuid.UUID) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		insertQuery := `
			INSERT INTO training_runs (id, name, base_model, status, example_count, dataset_key, adapter_path, started_at, completed_at, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		_, err := tx.Exec(ctx, insertQuery,
			run.ID,
			run.Name,
			run.BaseModel,
			run.Status,
			run.ExampleCount,
			run.DatasetKey,
			run.AdapterPath,
			run.StartedAt,
			run.CompletedAt,
			run.Notes,
			run.CreatedAt,
			run.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create training run: %w", err)
		}

		// Only approved examples flip; rejected and candidate rows are
		// untouched even if their IDs slip in
		markQuery := `
			UPDATE training_examples
			SET status = 'exported', run_id = $2, updated_at = NOW()
			WHERE id = ANY($1) AND status = 'approved'
		`
		if _, err := tx.Exec(ctx, markQuery, exampleIDs, run.ID); err != nil {
			return fmt.Errorf("failed to mark examples exported: %w", err)
		}

		return nil
	})
}

// GetRunByID retrieves a training run by ID
func (r *TrainingRepository) GetRunByID(ctx context.Context, id uuid.UUID) (*domain.TrainingRun, error) {
	query := `
		SELECT id, name, base_model, status, example_count, dataset_key, adapter_path, started_at, completed_at, notes, created_at, updated_at
		FROM training_runs
		WHERE id = $1
	`

	var run domain.TrainingRun
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.Name,
		&run.BaseModel,
		&run.Status,
		&run.ExampleCount,
		&run.DatasetKey,
		&run.AdapterPath,
		&run.StartedAt,
		&run.CompletedAt,
		&run.Notes,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("training run")
		}
		return nil, fmt.Errorf("failed to get training run: %w", err)
	}

	return &run, nil
}

// UpdateRun updates a training run
func (r *TrainingRepository) UpdateRun(ctx context.Context, run *domain.TrainingRun) error {
	query := `
		UPDATE training_runs
		SET status = $2, adapter_path = $3, started_at = $4, completed_at = $5, notes = $6, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		run.ID,
		run.Status,
		run.AdapterPath,
		run.StartedAt,
		run.CompletedAt,
		run.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update training run: %w", err)
	}

	return nil
}

// ListRuns retrieves training runs, newest first
func (r *TrainingRepository) ListRuns(ctx context.Context, limit int) ([]domain.TrainingRun, error) {
	query := `
		SELECT id, name, base_model, status, example_count, dataset_key, adapter_path, started_at, completed_at, notes, created_at, updated_at
		FROM training_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list training runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.TrainingRun
	for rows.Next() {
		var run domain.TrainingRun
		if err := rows.Scan(
			&run.ID,
			&run.Name,
			&run.BaseModel,
			&run.Status,
			&run.ExampleCount,
			&run.DatasetKey,
			&run.AdapterPath,
			&run.StartedAt,
			&run.CompletedAt,
			&run.Notes,
			&run.CreatedAt,
			&run.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// Stats returns curation pipeline counts and the most recent run
func (r *TrainingRepository) Stats(ctx context.Context) (*domain.TrainingStats, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE status = 'candidate'),
		       COUNT(*) FILTER (WHERE status = 'approved'),
		       COUNT(*) FILTER (WHERE status = 'rejected'),
		       COUNT(*) FILTER (WHERE status = 'exported')
		FROM training_examples
	`

	var stats domain.TrainingStats
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&stats.CandidateCount,
		&stats.ApprovedCount,
		&stats.RejectedCount,
		&stats.ExportedCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get training stats: %w", err)
	}

	runs, err := r.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		stats.LastRun = &runs[0]
	}

	return &stats, nil
}
