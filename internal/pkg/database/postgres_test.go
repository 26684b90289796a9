package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/angelahq/angela/internal/pkg/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	_ = logger.Init(logger.Config{
		Level:  "error", // Only show errors in tests to reduce noise
		Format: "console",
	})
	os.Exit(m.Run())
}

func TestTruncateSQL(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		maxLen   int
		expected string
	}{
		{
			name:     "short SQL unchanged",
			sql:      "SELECT * FROM reminders",
			maxLen:   100,
			expected: "SELECT * FROM reminders",
		},
		{
			name:     "exactly at max length",
			sql:      "SELECT * FROM skills",
			maxLen:   20,
			expected: "SELECT * FROM skills",
		},
		{
			name:     "truncated with ellipsis",
			sql:      "SELECT * FROM meetings WHERE id = 1",
			maxLen:   22,
			expected: "SELECT * FROM meetings...",
		},
		{
			name:     "empty string",
			sql:      "",
			maxLen:   10,
			expected: "",
		},
		{
			name:     "very long query",
			sql:      "SELECT id, title, notes, due_at, recurrence, priority, status FROM reminders WHERE status = 'pending' ORDER BY due_at ASC LIMIT 100",
			maxLen:   50,
			expected: "SELECT id, title, notes, due_at, recurrence, prior...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncateSQL(tt.sql, tt.maxLen)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSQLOperation(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"select", "SELECT * FROM projects", "select"},
		{"lowercase insert", "insert into skills (id, name) values ($1, $2)", "insert"},
		{"leading whitespace", "\n\tUPDATE reminders SET status = $1", "update"},
		{"delete", "DELETE FROM memory_facts WHERE id = $1", "delete"},
		{"cte collapses to other", "WITH due AS (SELECT 1) SELECT * FROM due", "other"},
		{"empty", "", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqlOperation(tt.sql))
		})
	}
}

func TestQueryTracerTraceQueryStart(t *testing.T) {
	t.Run("adds start time to context", func(t *testing.T) {
		tracer := &queryTracer{}
		ctx := context.Background()

		data := pgx.TraceQueryStartData{
			SQL:  "SELECT 1",
			Args: []interface{}{},
		}

		newCtx := tracer.TraceQueryStart(ctx, nil, data)

		start, ok := newCtx.Value(queryStartKey{}).(time.Time)
		assert.True(t, ok)
		assert.False(t, start.IsZero())
	})

	t.Run("adds SQL to context", func(t *testing.T) {
		tracer := &queryTracer{}
		ctx := context.Background()

		data := pgx.TraceQueryStartData{
			SQL:  "SELECT * FROM projects WHERE id = $1",
			Args: []interface{}{1},
		}

		newCtx := tracer.TraceQueryStart(ctx, nil, data)

		sql, ok := newCtx.Value(querySQLKey{}).(string)
		assert.True(t, ok)
		assert.Equal(t, "SELECT * FROM projects WHERE id = $1", sql)
	})
}

func TestQueryTracerTraceQueryEnd(t *testing.T) {
	t.Run("handles missing start time in context", func(t *testing.T) {
		tracer := &queryTracer{}
		ctx := context.Background()

		data := pgx.TraceQueryEndData{Err: nil}

		// Should not panic
		tracer.TraceQueryEnd(ctx, nil, data)
	})
}

func TestPostgresDBClose(t *testing.T) {
	t.Run("handles nil pool", func(t *testing.T) {
		db := &PostgresDB{Pool: nil}
		// Should not panic
		db.Close()
	})
}
