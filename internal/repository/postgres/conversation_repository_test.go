package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelahq/angela/internal/domain"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
	"github.com/angelahq/angela/internal/pkg/pagination"
)

// createTestConversation creates a conversation with test data
func createTestConversation(title string) *domain.Conversation {
	now := time.Now()
	return &domain.Conversation{
		ID:        uuid.New(),
		Title:     title,
		Model:     "llama3.1:8b",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func createTestMessage(conversationID uuid.UUID, role domain.MessageRole, content string, at time.Time) *domain.Message {
	return &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      at,
	}
}

func TestConversationRepository_CreateAndGet(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	convRepo := NewConversationRepository(db)
	ctx := context.Background()

	conv := createTestConversation("Test Conversation Create")
	defer cleanupConversations(t, db, conv.ID)

	err := convRepo.Create(ctx, conv)
	require.NoError(t, err)

	fetched, err := convRepo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, fetched.ID)
	assert.Equal(t, conv.Model, fetched.Model)
	assert.Equal(t, 0, fetched.MessageCount)
	assert.Nil(t, fetched.LastMessageAt)

	_, err = convRepo.GetByID(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestConversationRepository_AppendMessage(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	convRepo := NewConversationRepository(db)
	ctx := context.Background()

	conv := createTestConversation("Test Conversation Append")
	defer cleanupConversations(t, db, conv.ID)

	require.NoError(t, convRepo.Create(ctx, conv))

	first := createTestMessage(conv.ID, domain.MessageRoleUser, "hello", time.Now().Truncate(time.Millisecond))
	require.NoError(t, convRepo.AppendMessage(ctx, first))

	second := createTestMessage(conv.ID, domain.MessageRoleAssistant, "hi there", time.Now().Truncate(time.Millisecond))
	require.NoError(t, convRepo.AppendMessage(ctx, second))

	// Counters bump with each message
	fetched, err := convRepo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fetched.MessageCount)
	require.NotNil(t, fetched.LastMessageAt)
	assert.WithinDuration(t, second.CreatedAt, *fetched.LastMessageAt, time.Second)

	t.Run("append to missing conversation", func(t *testing.T) {
		orphan := createTestMessage(uuid.New(), domain.MessageRoleUser, "lost", time.Now())
		err := convRepo.AppendMessage(ctx, orphan)
		assert.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestConversationRepository_ListMessages(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	convRepo := NewConversationRepository(db)
	ctx := context.Background()

	conv := createTestConversation("Test Conversation Messages")
	defer cleanupConversations(t, db, conv.ID)

	require.NoError(t, convRepo.Create(ctx, conv))

	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		msg := createTestMessage(conv.ID, domain.MessageRoleUser, fmt.Sprintf("message %d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, convRepo.AppendMessage(ctx, msg))
	}

	// First page of 2
	page, err := convRepo.ListMessages(ctx, conv.ID, 2, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.NotEmpty(t, page.NextCursor)
	assert.Equal(t, "message 0", page.Items[0].Content)
	assert.Equal(t, "message 1", page.Items[1].Content)

	// Second page continues where the first left off
	next, err := pagination.DecodeCursor(page.NextCursor)
	require.NoError(t, err)

	page2, err := convRepo.ListMessages(ctx, conv.ID, 2, next)
	require.NoError(t, err)
	require.Len(t, page2.Items, 2)
	assert.Equal(t, "message 2", page2.Items[0].Content)
	assert.Equal(t, "message 3", page2.Items[1].Content)
	assert.True(t, page2.HasMore)

	// Last page
	next2, err := pagination.DecodeCursor(page2.NextCursor)
	require.NoError(t, err)
	page3, err := convRepo.ListMessages(ctx, conv.ID, 2, next2)
	require.NoError(t, err)
	require.Len(t, page3.Items, 1)
	assert.Equal(t, "message 4", page3.Items[0].Content)
	assert.False(t, page3.HasMore)
	assert.Empty(t, page3.NextCursor)
}

func TestConversationRepository_ListRecentMessages(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	convRepo := NewConversationRepository(db)
	ctx := context.Background()

	conv := createTestConversation("Test Conversation Recent")
	defer cleanupConversations(t, db, conv.ID)

	require.NoError(t, convRepo.Create(ctx, conv))

	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	for i := 0; i < 4; i++ {
		msg := createTestMessage(conv.ID, domain.MessageRoleUser, fmt.Sprintf("message %d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, convRepo.AppendMessage(ctx, msg))
	}

	// Last two, oldest first
	recent, err := convRepo.ListRecentMessages(ctx, conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "message 2", recent[0].Content)
	assert.Equal(t, "message 3", recent[1].Content)
}

func TestConversationRepository_List(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	convRepo := NewConversationRepository(db)
	ctx := context.Background()

	conv1 := createTestConversation("Test Conversation List Open")
	conv2 := createTestConversation("Test Conversation List Archived")
	conv2.Archived = true
	defer cleanupConversations(t, db, conv1.ID, conv2.ID)

	require.NoError(t, convRepo.Create(ctx, conv1))
	require.NoError(t, convRepo.Create(ctx, conv2))

	t.Run("filter archived", func(t *testing.T) {
		archived := true
		list, err := convRepo.List(ctx, &domain.ConversationFilter{
			Archived: &archived,
			Limit:    50,
		})
		require.NoError(t, err)
		found := false
		for _, c := range list.Conversations {
			assert.True(t, c.Archived)
			if c.ID == conv2.ID {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("search by title", func(t *testing.T) {
		search := "Conversation List Open"
		list, err := convRepo.List(ctx, &domain.ConversationFilter{
			Search: &search,
			Limit:  50,
		})
		require.NoError(t, err)
		require.NotEmpty(t, list.Conversations)
		assert.Equal(t, conv1.ID, list.Conversations[0].ID)
	})

	t.Run("invalid cursor", func(t *testing.T) {
		_, err := convRepo.List(ctx, &domain.ConversationFilter{
			Limit:  50,
			Cursor: "not-a-cursor",
		})
		assert.Error(t, err)
	})
}

func TestConversationRepository_ArchiveIdle(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	convRepo := NewConversationRepository(db)
	ctx := context.Background()

	stale := createTestConversation("Test Conversation Idle Stale")
	stale.CreatedAt = time.Now().Add(-90 * 24 * time.Hour)
	stale.UpdatedAt = stale.CreatedAt
	fresh := createTestConversation("Test Conversation Idle Fresh")
	defer cleanupConversations(t, db, stale.ID, fresh.ID)

	require.NoError(t, convRepo.Create(ctx, stale))
	require.NoError(t, convRepo.Create(ctx, fresh))

	archived, err := convRepo.ArchiveIdle(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, archived, int64(1))

	fetchedStale, err := convRepo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.True(t, fetchedStale.Archived)

	fetchedFresh, err := convRepo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.False(t, fetchedFresh.Archived)
}
