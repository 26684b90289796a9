package domain

import (
	"time"

	"github.com/google/uuid"
)

// APIKey represents an API key for the native apps and the MCP server.
// Keys are global, distinguished by name, not bound to a project.
type APIKey struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	PublicKey        string     `json:"publicKey"`
	SecretKeyHash    string     `json:"-"`
	SecretKeyPreview string     `json:"secretKeyPreview"`
	Scopes           []string   `json:"scopes"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	LastUsedAt       *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// APIKeyInput represents input for creating an API key
type APIKeyInput struct {
	Name      string     `json:"name" validate:"required,min=1,max=100"`
	Scopes    []string   `json:"scopes,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// APIKeyCreateResult represents the result of creating an API key.
// SecretKey is the plaintext secret, returned exactly once.
type APIKeyCreateResult struct {
	APIKey    *APIKey `json:"apiKey"`
	SecretKey string  `json:"secretKey"`
}

// DefaultScopes returns the default API key scopes
func DefaultScopes() []string {
	return []string{
		"chat:write",
		"chat:read",
		"memory:read",
		"memory:write",
		"reminders:read",
		"meetings:read",
		"tools:call",
	}
}

// AllScopes returns all available API key scopes
func AllScopes() []string {
	return []string{
		// Chat operations
		"chat:read",
		"chat:write",

		// Memory operations
		"memory:read",
		"memory:write",
		"memory:delete",

		// Project and meeting operations
		"projects:read",
		"projects:write",
		"meetings:read",
		"meetings:write",

		// Skill and pattern operations
		"skills:read",
		"skills:write",
		"patterns:read",
		"patterns:write",

		// Reminder operations
		"reminders:read",
		"reminders:write",

		// Training operations
		"training:read",
		"training:write",

		// MCP tool invocation
		"tools:call",

		// Admin operations
		"admin:read",
		"admin:write",
	}
}

// HasScope checks if the API key has a specific scope
func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope || s == "admin:write" {
			return true
		}
		// Check for wildcard scope
		if len(s) > 1 && s[len(s)-1] == '*' {
			prefix := s[:len(s)-1]
			if len(scope) >= len(prefix) && scope[:len(prefix)] == prefix {
				return true
			}
		}
	}
	return false
}

// HasAnyScope checks if the API key has any of the specified scopes
func (k *APIKey) HasAnyScope(scopes ...string) bool {
	for _, scope := range scopes {
		if k.HasScope(scope) {
			return true
		}
	}
	return false
}

// IsExpired checks if the API key has expired
func (k *APIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*k.ExpiresAt)
}
