package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/angelahq/angela/internal/domain"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog creates a new audit log entry
func (r *AuditRepository) CreateAuditLog(ctx context.Context, input *domain.AuditLogInput) (*domain.AuditLog, error) {
	id := uuid.New()
	now := time.Now()

	metadataJSON, err := json.Marshal(input.Metadata)
	if err != nil {
		metadataJSON = []byte("{}")
	}

	query := `
		INSERT INTO audit_logs (
			id, actor_id, actor_email, actor_type,
			action, resource_type, resource_id, resource_name, description,
			metadata, ip_address, user_agent, request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = r.db.ExecContext(ctx, query,
		id, input.ActorID, input.ActorEmail, input.ActorType,
		input.Action, input.ResourceType, input.ResourceID, input.ResourceName, input.Description,
		metadataJSON, input.IPAddress, input.UserAgent, input.RequestID, now,
	)
	if err != nil {
		return nil, err
	}

	return &domain.AuditLog{
		ID:           id,
		ActorID:      input.ActorID,
		ActorEmail:   input.ActorEmail,
		ActorType:    input.ActorType,
		Action:       input.Action,
		ResourceType: input.ResourceType,
		ResourceID:   input.ResourceID,
		ResourceName: input.ResourceName,
		Description:  input.Description,
		Metadata:     input.Metadata,
		IPAddress:    input.IPAddress,
		UserAgent:    input.UserAgent,
		RequestID:    input.RequestID,
		CreatedAt:    now,
	}, nil
}

// GetAuditLog retrieves a single audit log entry
func (r *AuditRepository) GetAuditLog(ctx context.Context, logID uuid.UUID) (*domain.AuditLog, error) {
	query := `
		SELECT id, actor_id, actor_email, actor_type,
			action, resource_type, resource_id, resource_name, description,
			metadata, ip_address, user_agent, request_id, created_at
		FROM audit_logs
		WHERE id = $1`

	var log domain.AuditLog
	var metadataJSON []byte

	err := r.db.QueryRowContext(ctx, query, logID).Scan(
		&log.ID, &log.ActorID, &log.ActorEmail, &log.ActorType,
		&log.Action, &log.ResourceType, &log.ResourceID, &log.ResourceName, &log.Description,
		&metadataJSON, &log.IPAddress, &log.UserAgent, &log.RequestID, &log.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("audit log")
	}
	if err != nil {
		return nil, err
	}

	if metadataJSON != nil {
		json.Unmarshal(metadataJSON, &log.Metadata)
	}

	return &log, nil
}

// ListAuditLogs retrieves audit logs with filtering and pagination
func (r *AuditRepository) ListAuditLogs(ctx context.Context, filter *domain.AuditLogFilter) (*domain.AuditLogList, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.ActorID != nil {
		conditions = append(conditions, fmt.Sprintf("actor_id = $%d", argNum))
		args = append(args, *filter.ActorID)
		argNum++
	}

	if filter.Action != nil {
		conditions = append(conditions, fmt.Sprintf("action = $%d", argNum))
		args = append(args, *filter.Action)
		argNum++
	}

	if len(filter.Actions) > 0 {
		placeholders := make([]string, len(filter.Actions))
		for i, action := range filter.Actions {
			placeholders[i] = fmt.Sprintf("$%d", argNum)
			args = append(args, action)
			argNum++
		}
		conditions = append(conditions, fmt.Sprintf("action IN (%s)", strings.Join(placeholders, ", ")))
	}

	if filter.ResourceType != nil {
		conditions = append(conditions, fmt.Sprintf("resource_type = $%d", argNum))
		args = append(args, *filter.ResourceType)
		argNum++
	}

	if filter.ResourceID != nil {
		conditions = append(conditions, fmt.Sprintf("resource_id = $%d", argNum))
		args = append(args, *filter.ResourceID)
		argNum++
	}

	if filter.StartTime != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argNum))
		args = append(args, *filter.StartTime)
		argNum++
	}

	if filter.EndTime != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argNum))
		args = append(args, *filter.EndTime)
		argNum++
	}

	if filter.SearchQuery != nil && *filter.SearchQuery != "" {
		conditions = append(conditions, fmt.Sprintf(
			"to_tsvector('english', coalesce(description, '') || ' ' || coalesce(resource_name, '')) @@ plainto_tsquery('english', $%d)",
			argNum,
		))
		args = append(args, *filter.SearchQuery)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_logs %s", whereClause)
	var totalCount int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, err
	}

	// Get data
	limit := 50
	if filter.Limit > 0 && filter.Limit <= 1000 {
		limit = filter.Limit
	}

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	dataQuery := fmt.Sprintf(`
		SELECT id, actor_id, actor_email, actor_type,
			action, resource_type, resource_id, resource_name, description,
			metadata, ip_address, user_agent, request_id, created_at
		FROM audit_logs
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argNum, argNum+1)

	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var metadataJSON []byte

		if err := rows.Scan(
			&log.ID, &log.ActorID, &log.ActorEmail, &log.ActorType,
			&log.Action, &log.ResourceType, &log.ResourceID, &log.ResourceName, &log.Description,
			&metadataJSON, &log.IPAddress, &log.UserAgent, &log.RequestID, &log.CreatedAt,
		); err != nil {
			return nil, err
		}

		if metadataJSON != nil {
			json.Unmarshal(metadataJSON, &log.Metadata)
		}

		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.AuditLogList{
		Data:       logs,
		TotalCount: totalCount,
		HasMore:    offset+len(logs) < totalCount,
	}, nil
}

// DeleteAuditLogsBefore deletes audit logs older than the specified time
func (r *AuditRepository) DeleteAuditLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM audit_logs WHERE created_at < $1",
		before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
