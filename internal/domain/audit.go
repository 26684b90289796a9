package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	// Authentication actions
	AuditActionLogin       AuditAction = "login"
	AuditActionLogout      AuditAction = "logout"
	AuditActionLoginFailed AuditAction = "login_failed"
	AuditActionAPIKeyUsed  AuditAction = "api_key_used"

	// API key management
	AuditActionAPIKeyCreated AuditAction = "api_key_created"
	AuditActionAPIKeyRevoked AuditAction = "api_key_revoked"

	// Resource lifecycle
	AuditActionResourceCreated AuditAction = "resource_created"
	AuditActionResourceUpdated AuditAction = "resource_updated"
	AuditActionResourceDeleted AuditAction = "resource_deleted"

	// Memory and training
	AuditActionMemoryForgotten AuditAction = "memory_forgotten"
	AuditActionDatasetExported AuditAction = "dataset_exported"

	// MCP tool invocations
	AuditActionToolCalled AuditAction = "tool_called"
)

// AuditResourceType represents the type of resource being audited
type AuditResourceType string

const (
	AuditResourceUser         AuditResourceType = "user"
	AuditResourceAPIKey       AuditResourceType = "api_key"
	AuditResourceProject      AuditResourceType = "project"
	AuditResourceMeeting      AuditResourceType = "meeting"
	AuditResourceSkill        AuditResourceType = "skill"
	AuditResourcePattern      AuditResourceType = "pattern"
	AuditResourceReminder     AuditResourceType = "reminder"
	AuditResourceConversation AuditResourceType = "conversation"
	AuditResourceMemory       AuditResourceType = "memory"
	AuditResourceTraining     AuditResourceType = "training"
	AuditResourceTool         AuditResourceType = "tool"
)

// AuditLog represents an audit log entry
type AuditLog struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	ActorID      *uuid.UUID        `json:"actorId,omitempty" db:"actor_id"` // User who performed the action
	ActorEmail   string            `json:"actorEmail" db:"actor_email"`     // Preserved even if the user is deleted
	ActorType    string            `json:"actorType" db:"actor_type"`       // "user", "api_key", "system"
	Action       AuditAction       `json:"action" db:"action"`
	ResourceType AuditResourceType `json:"resourceType" db:"resource_type"`
	ResourceID   *uuid.UUID        `json:"resourceId,omitempty" db:"resource_id"`
	ResourceName string            `json:"resourceName,omitempty" db:"resource_name"`
	Description  string            `json:"description" db:"description"`
	Metadata     map[string]any    `json:"metadata,omitempty" db:"metadata"`

	// Request context
	IPAddress string `json:"ipAddress" db:"ip_address"`
	UserAgent string `json:"userAgent" db:"user_agent"`
	RequestID string `json:"requestId,omitempty" db:"request_id"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// AuditLogInput represents input for creating an audit log entry
type AuditLogInput struct {
	ActorID      *uuid.UUID
	ActorEmail   string
	ActorType    string
	Action       AuditAction
	ResourceType AuditResourceType
	ResourceID   *uuid.UUID
	ResourceName string
	Description  string
	Metadata     map[string]any
	IPAddress    string
	UserAgent    string
	RequestID    string
}

// AuditLogFilter represents filter options for querying audit logs
type AuditLogFilter struct {
	ActorID      *uuid.UUID
	Action       *AuditAction
	Actions      []AuditAction
	ResourceType *AuditResourceType
	ResourceID   *uuid.UUID
	StartTime    *time.Time
	EndTime      *time.Time
	SearchQuery  *string // Matched against description and resource name

	// Pagination
	Limit  int
	Offset int
}

// AuditLogList represents a paginated list of audit logs
type AuditLogList struct {
	Data       []AuditLog `json:"data"`
	TotalCount int        `json:"totalCount"`
	HasMore    bool       `json:"hasMore"`
}
