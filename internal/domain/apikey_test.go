package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAPIKeyHasScope(t *testing.T) {
	tests := []struct {
		name   string
		scopes []string
		check  string
		want   bool
	}{
		{"exact match", []string{"chat:read", "chat:write"}, "chat:write", true},
		{"missing scope", []string{"chat:read"}, "memory:write", false},
		{"admin write implies all", []string{"admin:write"}, "training:write", true},
		{"wildcard prefix", []string{"memory:*"}, "memory:delete", true},
		{"wildcard wrong prefix", []string{"memory:*"}, "chat:read", false},
		{"empty scopes", nil, "chat:read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &APIKey{Scopes: tt.scopes}
			assert.Equal(t, tt.want, k.HasScope(tt.check))
		})
	}
}

func TestAPIKeyHasAnyScope(t *testing.T) {
	k := &APIKey{Scopes: []string{"reminders:read"}}
	assert.True(t, k.HasAnyScope("chat:read", "reminders:read"))
	assert.False(t, k.HasAnyScope("chat:read", "chat:write"))
}

func TestAPIKeyIsExpired(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	assert.False(t, (&APIKey{}).IsExpired(), "no expiry never expires")
	assert.True(t, (&APIKey{ExpiresAt: &past}).IsExpired())
	assert.False(t, (&APIKey{ExpiresAt: &future}).IsExpired())
}
