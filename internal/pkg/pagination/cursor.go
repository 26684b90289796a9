package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// DefaultLimit is applied when the caller does not ask for a page size
	DefaultLimit = 50
	// MaxLimit caps the page size regardless of what the caller asks for
	MaxLimit = 200
)

// Cursor marks a position in a listing ordered by creation time, newest
// first. Ties on the timestamp break on the row ID.
type Cursor struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
}

// NewCursor creates a cursor from an ID and timestamp
func NewCursor(id string, timestamp time.Time) *Cursor {
	return &Cursor{ID: id, Timestamp: timestamp}
}

// Encode encodes the cursor to an opaque string
func (c *Cursor) Encode() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor decodes a cursor string. An empty string decodes to a nil
// cursor, meaning the first page.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}

	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}

	return &cursor, nil
}

// PageParams contains pagination parameters for cursor listings
type PageParams struct {
	Limit  int
	Cursor string
}

// NewPageParams creates pagination parameters with the default limit
func NewPageParams() PageParams {
	return PageParams{Limit: DefaultLimit}
}

// ClampedLimit returns the limit bounded to [1, MaxLimit]
func (p PageParams) ClampedLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	if p.Limit > MaxLimit {
		return MaxLimit
	}
	return p.Limit
}

// DecodedCursor decodes the cursor string, nil meaning the first page
func (p PageParams) DecodedCursor() (*Cursor, error) {
	return DecodeCursor(p.Cursor)
}

// Page is one page of a cursor listing. NextCursor is empty on the last
// page.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// NewPage builds a page from one-more-than-limit items: the repositories
// fetch limit+1 rows and the extra row, if present, becomes the proof of
// a next page.
func NewPage[T any](items []T, limit int, cursorFor func(T) *Cursor) Page[T] {
	page := Page[T]{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true
		if c := cursorFor(page.Items[limit-1]); c != nil {
			page.NextCursor = c.Encode()
		}
	}
	return page
}
