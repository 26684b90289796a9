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

// APIKeyRepository handles API key data operations in PostgreSQL
type APIKeyRepository struct {
	db *database.PostgresDB
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *database.PostgresDB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create creates a new API key
func (r *APIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	query := `
		INSERT INTO api_keys (id, name, public_key, secret_key_hash, secret_key_preview, scopes, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		key.ID,
		key.Name,
		key.PublicKey,
		key.SecretKeyHash,
		key.SecretKeyPreview,
		key.Scopes,
		key.ExpiresAt,
		key.CreatedAt,
		key.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create api key: %w", err)
	}

	return nil
}

// GetByID retrieves an API key by ID
func (r *APIKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.APIKey, error) {
	query := `
		SELECT id, name, public_key, secret_key_hash, secret_key_preview, scopes, expires_at, last_used_at, created_at, updated_at
		FROM api_keys
		WHERE id = $1
	`

	var key domain.APIKey
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&key.ID,
		&key.Name,
		&key.PublicKey,
		&key.SecretKeyHash,
		&key.SecretKeyPreview,
		&key.Scopes,
		&key.ExpiresAt,
		&key.LastUsedAt,
		&key.CreatedAt,
		&key.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("api key")
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}

	return &key, nil
}

// GetByPublicKey retrieves an API key by its public half
func (r *APIKeyRepository) GetByPublicKey(ctx context.Context, publicKey string) (*domain.APIKey, error) {
	query := `
		SELECT id, name, public_key, secret_key_hash, secret_key_preview, scopes, expires_at, last_used_at, created_at, updated_at
		FROM api_keys
		WHERE public_key = $1
	`

	var key domain.APIKey
	err := r.db.Pool.QueryRow(ctx, query, publicKey).Scan(
		&key.ID,
		&key.Name,
		&key.PublicKey,
		&key.SecretKeyHash,
		&key.SecretKeyPreview,
		&key.Scopes,
		&key.ExpiresAt,
		&key.LastUsedAt,
		&key.CreatedAt,
		&key.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("api key")
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}

	return &key, nil
}

// List retrieves all API keys, newest first
func (r *APIKeyRepository) List(ctx context.Context) ([]domain.APIKey, error) {
	query := `
		SELECT id, name, public_key, secret_key_hash, secret_key_preview, scopes, expires_at, last_used_at, created_at, updated_at
		FROM api_keys
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		var key domain.APIKey
		if err := rows.Scan(
			&key.ID,
			&key.Name,
			&key.PublicKey,
			&key.SecretKeyHash,
			&key.SecretKeyPreview,
			&key.Scopes,
			&key.ExpiresAt,
			&key.LastUsedAt,
			&key.CreatedAt,
			&key.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		keys = append(keys, key)
	}

	return keys, nil
}

// UpdateLastUsed bumps the last-used timestamp
func (r *APIKeyRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to update last used: %w", err)
	}

	return nil
}

// Delete deletes an API key
func (r *APIKeyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM api_keys WHERE id = $1`

	_, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}

	return nil
}
