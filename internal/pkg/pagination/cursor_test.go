package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 12, 9, 30, 0, 0, time.UTC)
	original := NewCursor("3f1a7c2e-0000-0000-0000-000000000001", ts)

	encoded := original.Encode()
	require.NotEmpty(t, encoded)

	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.Equal(t, original.ID, decoded.ID)
	assert.True(t, original.Timestamp.Equal(decoded.Timestamp))
}

func TestDecodeCursor(t *testing.T) {
	t.Run("empty string is first page", func(t *testing.T) {
		c, err := DecodeCursor("")
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := DecodeCursor("not base64!!!")
		assert.ErrorContains(t, err, "invalid cursor encoding")
	})

	t.Run("valid base64 invalid json", func(t *testing.T) {
		_, err := DecodeCursor("bm90IGpzb24=")
		assert.ErrorContains(t, err, "invalid cursor format")
	})
}

func TestPageParamsClampedLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, DefaultLimit},
		{"negative uses default", -5, DefaultLimit},
		{"within bounds", 25, 25},
		{"over max is capped", MaxLimit + 1000, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PageParams{Limit: tt.limit}
			assert.Equal(t, tt.want, p.ClampedLimit())
		})
	}
}

func TestNewPage(t *testing.T) {
	type row struct {
		id string
		at time.Time
	}
	cursorFor := func(r row) *Cursor { return NewCursor(r.id, r.at) }
	now := time.Now().UTC()

	t.Run("full page with more", func(t *testing.T) {
		rows := []row{
			{"a", now},
			{"b", now.Add(-time.Minute)},
			{"c", now.Add(-2 * time.Minute)},
		}

		page := NewPage(rows, 2, cursorFor)
		assert.Len(t, page.Items, 2)
		assert.True(t, page.HasMore)
		require.NotEmpty(t, page.NextCursor)

		decoded, err := DecodeCursor(page.NextCursor)
		require.NoError(t, err)
		assert.Equal(t, "b", decoded.ID, "cursor points at the last returned row")
	})

	t.Run("short page", func(t *testing.T) {
		page := NewPage([]row{{"a", now}}, 2, cursorFor)
		assert.Len(t, page.Items, 1)
		assert.False(t, page.HasMore)
		assert.Empty(t, page.NextCursor)
	})

	t.Run("empty page", func(t *testing.T) {
		page := NewPage([]row{}, 2, cursorFor)
		assert.Empty(t, page.Items)
		assert.False(t, page.HasMore)
	})
}
