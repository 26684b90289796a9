package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project represents a tracked personal project
type Project struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	Priority    int           `json:"priority"`
	Tags        []string      `json:"tags,omitempty"`
	Deadline    *time.Time    `json:"deadline,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// IsOpen reports whether the project still accepts work
func (p *Project) IsOpen() bool {
	return p.Status == ProjectStatusActive || p.Status == ProjectStatusPaused
}

// ProjectInput represents input for creating a project
type ProjectInput struct {
	Name        string     `json:"name" validate:"required,min=2,max=100"`
	Slug        string     `json:"slug,omitempty" validate:"omitempty,min=2,max=100"`
	Description string     `json:"description,omitempty"`
	Priority    int        `json:"priority,omitempty" validate:"omitempty,min=1,max=5"`
	Tags        []string   `json:"tags,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// ProjectUpdateInput represents input for updating a project
type ProjectUpdateInput struct {
	Name        *string        `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	Priority    *int           `json:"priority,omitempty" validate:"omitempty,min=1,max=5"`
	Tags        []string       `json:"tags,omitempty"`
	Deadline    *time.Time     `json:"deadline,omitempty"`
	Notes       *string        `json:"notes,omitempty"`
}

// ProjectFilter represents filter options for querying projects
type ProjectFilter struct {
	Status *ProjectStatus
	Tag    *string
	Search *string

	Limit  int
	Offset int
}

// ProjectList represents a paginated list of projects
type ProjectList struct {
	Projects   []Project `json:"projects"`
	TotalCount int64     `json:"totalCount"`
	HasMore    bool      `json:"hasMore"`
}

// GenerateSlug generates a URL-safe slug from a name
func GenerateSlug(name string) string {
	// Simple slug generation - replace spaces with hyphens, lowercase
	slug := ""
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			slug += string(r)
		} else if r >= 'A' && r <= 'Z' {
			slug += string(r + 32) // lowercase
		} else if r >= '0' && r <= '9' {
			slug += string(r)
		} else if r == ' ' || r == '-' || r == '_' {
			if len(slug) > 0 && slug[len(slug)-1] != '-' {
				slug += "-"
			}
		}
	}
	// Trim trailing hyphens
	for len(slug) > 0 && slug[len(slug)-1] == '-' {
		slug = slug[:len(slug)-1]
	}
	return slug
}
