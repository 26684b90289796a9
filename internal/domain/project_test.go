package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Angela", "angela"},
		{"spaces to hyphens", "Learn Rust Properly", "learn-rust-properly"},
		{"mixed punctuation dropped", "Q3 Planning (v2)!", "q3-planning-v2"},
		{"collapsed separators", "a  -  b___c", "a-b-c"},
		{"trailing separators trimmed", "Side Project ", "side-project"},
		{"digits kept", "2025 Goals", "2025-goals"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateSlug(tt.in))
		})
	}
}

func TestProjectIsOpen(t *testing.T) {
	assert.True(t, (&Project{Status: ProjectStatusActive}).IsOpen())
	assert.True(t, (&Project{Status: ProjectStatusPaused}).IsOpen())
	assert.False(t, (&Project{Status: ProjectStatusCompleted}).IsOpen())
	assert.False(t, (&Project{Status: ProjectStatusArchived}).IsOpen())
}
