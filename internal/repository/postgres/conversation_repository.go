package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/pkg/database"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
	"github.com/angelahq/angela/internal/pkg/pagination"
)

// ConversationRepository handles conversation and message data operations
// in PostgreSQL
type ConversationRepository struct {
	db *database.PostgresDB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *database.PostgresDB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create creates a new conversation
func (r *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	query := `
		INSERT INTO conversations (id, title, model, archived, message_count, last_message_at, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		conv.ID,
		conv.Title,
		conv.Model,
		conv.Archived,
		conv.MessageCount,
		conv.LastMessageAt,
		conv.Summary,
		conv.CreatedAt,
		conv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, title, model, archived, message_count, last_message_at, summary, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`

	var conv domain.Conversation
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&conv.ID,
		&conv.Title,
		&conv.Model,
		&conv.Archived,
		&conv.MessageCount,
		&conv.LastMessageAt,
		&conv.Summary,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("conversation")
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return &conv, nil
}

// Update updates a conversation
func (r *ConversationRepository) Update(ctx context.Context, conv *domain.Conversation) error {
	query := `
		UPDATE conversations
		SET title = $2, model = $3, archived = $4, summary = $5, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		conv.ID,
		conv.Title,
		conv.Model,
		conv.Archived,
		conv.Summary,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}

	return nil
}

// Delete deletes a conversation and its messages
func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE conversation_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}
		return nil
	})
}

// List retrieves conversations with cursor pagination, newest first
func (r *ConversationRepository) List(ctx context.Context, filter *domain.ConversationFilter) (*domain.ConversationList, error) {
	cursor, err := pagination.DecodeCursor(filter.Cursor)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	query := `
		SELECT id, title, model, archived, message_count, last_message_at, summary, created_at, updated_at
		FROM conversations
		WHERE 1=1
	`
	args := []interface{}{}
	argIndex := 1

	if filter.Archived != nil {
		query += fmt.Sprintf(" AND archived = $%d", argIndex)
		args = append(args, *filter.Archived)
		argIndex++
	}
	if filter.Search != nil {
		query += fmt.Sprintf(" AND (title ILIKE $%d OR summary ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}
	if cursor != nil {
		cursorID, err := uuid.Parse(cursor.ID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid cursor")
		}
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursor.Timestamp, cursorID)
		argIndex += 2
	}

	// Fetch one extra row to detect a next page
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, filter.Limit+1)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(
			&conv.ID,
			&conv.Title,
			&conv.Model,
			&conv.Archived,
			&conv.MessageCount,
			&conv.LastMessageAt,
			&conv.Summary,
			&conv.CreatedAt,
			&conv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}

	page := pagination.NewPage(conversations, filter.Limit, func(c domain.Conversation) *pagination.Cursor {
		return pagination.NewCursor(c.ID.String(), c.CreatedAt)
	})

	return &domain.ConversationList{
		Conversations: page.Items,
		NextCursor:    page.NextCursor,
		HasMore:       page.HasMore,
	}, nil
}

// AppendMessage stores a message and bumps the conversation counters in
// one transaction
func (r *ConversationRepository) AppendMessage(ctx context.Context, msg *domain.Message) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		insertQuery := `
			INSERT INTO messages (id, conversation_id, role, content, tokens, has_embedding, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.Exec(ctx, insertQuery,
			msg.ID,
			msg.ConversationID,
			msg.Role,
			msg.Content,
			msg.Tokens,
			msg.HasEmbedding,
			msg.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		bumpQuery := `
			UPDATE conversations
			SET message_count = message_count + 1, last_message_at = $2, updated_at = NOW()
			WHERE id = $1
		`
		tag, err := tx.Exec(ctx, bumpQuery, msg.ConversationID, msg.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to update conversation counters: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NotFound("conversation")
		}

		return nil
	})
}

// ListMessages retrieves a page of messages in chronological order
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int, cursor *pagination.Cursor) (*pagination.Page[domain.Message], error) {
	query := `
		SELECT id, conversation_id, role, content, tokens, has_embedding, created_at
		FROM messages
		WHERE conversation_id = $1
	`
	args := []interface{}{conversationID}
	argIndex := 2

	if cursor != nil {
		cursorID, err := uuid.Parse(cursor.ID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid cursor")
		}
		query += fmt.Sprintf(" AND (created_at, id) > ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursor.Timestamp, cursorID)
		argIndex += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at ASC, id ASC LIMIT $%d", argIndex)
	args = append(args, limit+1)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&msg.Tokens,
			&msg.HasEmbedding,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	page := pagination.NewPage(messages, limit, func(m domain.Message) *pagination.Cursor {
		return pagination.NewCursor(m.ID.String(), m.CreatedAt)
	})

	return &page, nil
}

// ListRecentMessages retrieves the last n messages of a conversation in
// chronological order, for the chat context window
func (r *ConversationRepository) ListRecentMessages(ctx context.Context, conversationID uuid.UUID, n int) ([]domain.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, tokens, has_embedding, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, conversationID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&msg.Tokens,
			&msg.HasEmbedding,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	// Rows come back newest first; flip to chronological
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// GetMessageByID retrieves a single message
func (r *ConversationRepository) GetMessageByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, tokens, has_embedding, created_at
		FROM messages
		WHERE id = $1
	`

	var msg domain.Message
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Role,
		&msg.Content,
		&msg.Tokens,
		&msg.HasEmbedding,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("message")
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &msg, nil
}

// SetMessageEmbedding stores a message embedding and marks it embedded
func (r *ConversationRepository) SetMessageEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	query := `UPDATE messages SET embedding = $2, has_embedding = TRUE WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, id, embedding)
	if err != nil {
		return fmt.Errorf("failed to set message embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("message")
	}

	return nil
}

// ListMessagesMissingEmbedding retrieves user and assistant messages not
// yet embedded, oldest first
func (r *ConversationRepository) ListMessagesMissingEmbedding(ctx context.Context, limit int) ([]domain.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, tokens, has_embedding, created_at
		FROM messages
		WHERE has_embedding = FALSE AND role IN ('user', 'assistant')
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unembedded messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&msg.Tokens,
			&msg.HasEmbedding,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// ArchiveIdle archives conversations with no activity since the given
// time. Returns the number archived.
func (r *ConversationRepository) ArchiveIdle(ctx context.Context, before time.Time) (int64, error) {
	query := `
		UPDATE conversations
		SET archived = TRUE, updated_at = NOW()
		WHERE archived = FALSE AND COALESCE(last_message_at, created_at) < $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to archive idle conversations: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Stats returns conversation and message totals
func (r *ConversationRepository) Stats(ctx context.Context) (*domain.ConversationStats, error) {
	query := `
		SELECT (SELECT COUNT(*) FROM conversations),
		       (SELECT COUNT(*) FROM messages)
	`

	var stats domain.ConversationStats
	err := r.db.Pool.QueryRow(ctx, query).Scan(&stats.Total, &stats.Messages)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation stats: %w", err)
	}

	return &stats, nil
}
