package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation represents a chat session with the companion model
type Conversation struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title,omitempty"`
	Model         string     `json:"model"`
	Archived      bool       `json:"archived"`
	MessageCount  int        `json:"messageCount"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	Summary       string     `json:"summary,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Message represents a single chat message within a conversation
type Message struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversationId"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	Tokens         int         `json:"tokens,omitempty"`
	HasEmbedding   bool        `json:"hasEmbedding"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// ConversationInput represents input for creating a conversation
type ConversationInput struct {
	Title string `json:"title,omitempty" validate:"omitempty,max=200"`
	Model string `json:"model,omitempty" validate:"omitempty,max=100"`
}

// ConversationUpdateInput represents input for updating a conversation
type ConversationUpdateInput struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Archived *bool   `json:"archived,omitempty"`
}

// SendMessageInput represents input for sending a chat message
type SendMessageInput struct {
	Content string `json:"content" validate:"required,min=1,max=32000"`
}

// ChatReply represents the outcome of a chat turn
type ChatReply struct {
	UserMessage      *Message `json:"userMessage"`
	AssistantMessage *Message `json:"assistantMessage"`
	MemoriesRecalled int      `json:"memoriesRecalled"`
}

// ConversationFilter represents filter options for querying conversations
type ConversationFilter struct {
	Archived *bool
	Search   *string

	Limit  int
	Cursor string
}

// ConversationList represents a paginated list of conversations
type ConversationList struct {
	Conversations []Conversation `json:"conversations"`
	NextCursor    string         `json:"nextCursor,omitempty"`
	HasMore       bool           `json:"hasMore"`
}

// ChatEventType represents the type of realtime chat event
type ChatEventType string

const (
	ChatEventMessage     ChatEventType = "message"
	ChatEventTitle       ChatEventType = "title"
	ChatEventReminderDue ChatEventType = "reminder_due"
)

// ChatEvent represents a realtime event pushed to SSE subscribers
type ChatEvent struct {
	Type           ChatEventType `json:"type"`
	ConversationID *uuid.UUID    `json:"conversationId,omitempty"`
	Payload        any           `json:"payload,omitempty"`
	At             time.Time     `json:"at"`
}
