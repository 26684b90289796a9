package domain

import (
	"time"

	"github.com/google/uuid"
)

// MemoryFact represents a long-term memory: a short statement about the
// user or their world, embedded for semantic recall
type MemoryFact struct {
	ID                   uuid.UUID      `json:"id"`
	Content              string         `json:"content"`
	Category             MemoryCategory `json:"category"`
	Importance           int            `json:"importance"`
	Embedding            []float32      `json:"-"`
	HasEmbedding         bool           `json:"hasEmbedding"`
	SourceConversationID *uuid.UUID     `json:"sourceConversationId,omitempty"`
	RecallCount          int            `json:"recallCount"`
	LastRecalledAt       *time.Time     `json:"lastRecalledAt,omitempty"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
}

// MemorySearchResult pairs a recalled fact with its similarity to the query
type MemorySearchResult struct {
	Fact       MemoryFact `json:"fact"`
	Similarity float64    `json:"similarity"`
}

// MemoryInput represents input for storing a memory fact
type MemoryInput struct {
	Content              string         `json:"content" validate:"required,min=3,max=2000"`
	Category             MemoryCategory `json:"category,omitempty"`
	Importance           int            `json:"importance,omitempty" validate:"omitempty,min=1,max=5"`
	SourceConversationID *uuid.UUID     `json:"sourceConversationId,omitempty"`
}

// MemorySearchInput represents input for semantic memory search
type MemorySearchInput struct {
	Query         string          `json:"query" validate:"required,min=2,max=1000"`
	Category      *MemoryCategory `json:"category,omitempty"`
	Limit         int             `json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
	MinSimilarity float64         `json:"minSimilarity,omitempty" validate:"omitempty,min=0,max=1"`
}

// MemoryFilter represents filter options for listing memory facts
type MemoryFilter struct {
	Category      *MemoryCategory
	MinImportance *int

	Limit  int
	Offset int
}

// MemoryList represents a paginated list of memory facts
type MemoryList struct {
	Facts      []MemoryFact `json:"facts"`
	TotalCount int64        `json:"totalCount"`
	HasMore    bool         `json:"hasMore"`
}
