package domain

import (
	"time"

	"github.com/google/uuid"
)

// TrainingExample represents one prompt/response pair curated for LoRA
// fine-tuning of the personal chat model
type TrainingExample struct {
	ID             uuid.UUID             `json:"id"`
	Prompt         string                `json:"prompt"`
	Response       string                `json:"response"`
	SystemPrompt   string                `json:"systemPrompt,omitempty"`
	Source         TrainingSource        `json:"source"`
	ConversationID *uuid.UUID            `json:"conversationId,omitempty"`
	Status         TrainingExampleStatus `json:"status"`
	Quality        int                   `json:"quality,omitempty"`
	Tags           []string              `json:"tags,omitempty"`
	RunID          *uuid.UUID            `json:"runId,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// TrainingRun represents one fine-tuning run. Runs are tracked, not
// executed: the dataset is exported here and trained out-of-band, with
// status reported back through the API.
type TrainingRun struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	BaseModel    string            `json:"baseModel"`
	Status       TrainingRunStatus `json:"status"`
	ExampleCount int               `json:"exampleCount"`
	DatasetKey   string            `json:"datasetKey,omitempty"`
	AdapterPath  string            `json:"adapterPath,omitempty"`
	StartedAt    *time.Time        `json:"startedAt,omitempty"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// TrainingExampleInput represents input for creating a training example
type TrainingExampleInput struct {
	Prompt         string         `json:"prompt" validate:"required,min=1"`
	Response       string         `json:"response" validate:"required,min=1"`
	SystemPrompt   string         `json:"systemPrompt,omitempty"`
	Source         TrainingSource `json:"source,omitempty"`
	ConversationID *uuid.UUID     `json:"conversationId,omitempty"`
	Quality        int            `json:"quality,omitempty" validate:"omitempty,min=1,max=5"`
	Tags           []string       `json:"tags,omitempty"`
}

// TrainingExampleUpdateInput represents input for updating a training example
type TrainingExampleUpdateInput struct {
	Prompt       *string  `json:"prompt,omitempty" validate:"omitempty,min=1"`
	Response     *string  `json:"response,omitempty" validate:"omitempty,min=1"`
	SystemPrompt *string  `json:"systemPrompt,omitempty"`
	Quality      *int     `json:"quality,omitempty" validate:"omitempty,min=1,max=5"`
	Tags         []string `json:"tags,omitempty"`
}

// TrainingExampleFilter represents filter options for querying examples
type TrainingExampleFilter struct {
	Status         *TrainingExampleStatus
	Source         *TrainingSource
	ConversationID *uuid.UUID
	MinQuality     *int

	Limit  int
	Offset int
}

// TrainingExampleList represents a paginated list of training examples
type TrainingExampleList struct {
	Examples   []TrainingExample `json:"examples"`
	TotalCount int64             `json:"totalCount"`
	HasMore    bool              `json:"hasMore"`
}

// TrainingRunStatusInput represents an out-of-band status report for a run
type TrainingRunStatusInput struct {
	Status      TrainingRunStatus `json:"status" validate:"required"`
	AdapterPath *string           `json:"adapterPath,omitempty"`
	Notes       *string           `json:"notes,omitempty"`
}

// TrainingStats summarizes the curation pipeline for the dashboard
type TrainingStats struct {
	CandidateCount int64        `json:"candidateCount"`
	ApprovedCount  int64        `json:"approvedCount"`
	RejectedCount  int64        `json:"rejectedCount"`
	ExportedCount  int64        `json:"exportedCount"`
	LastRun        *TrainingRun `json:"lastRun,omitempty"`
}
