package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/pkg/database"
)

// getTestDB returns a database connection for integration tests.
// Returns nil if the database is not available (skips tests).
func getTestDB(t *testing.T) *database.PostgresDB {
	// Check if we're running integration tests
	if os.Getenv("POSTGRES_TEST_HOST") == "" {
		t.Skip("Skipping integration test: POSTGRES_TEST_HOST not set")
		return nil
	}

	cfg := config.PostgresConfig{
		Host:     os.Getenv("POSTGRES_TEST_HOST"),
		Port:     5432,
		User:     os.Getenv("POSTGRES_TEST_USER"),
		Password: os.Getenv("POSTGRES_TEST_PASS"),
		Database: os.Getenv("POSTGRES_TEST_DB"),
		SSLMode:  "disable",
		MaxConns: 5,
		MinConns: 1,
	}

	if cfg.Database == "" {
		cfg.Database = "test_angela"
	}
	if cfg.User == "" {
		cfg.User = "postgres"
	}

	db, err := database.NewPostgres(context.Background(), cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to PostgreSQL: %v", err)
		return nil
	}

	return db
}

// cleanupUsers removes test users from the database
func cleanupUsers(t *testing.T, db *database.PostgresDB, emails ...string) {
	ctx := context.Background()
	for _, email := range emails {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM users WHERE email = $1", email)
	}
}

// cleanupProjects removes test projects from the database
func cleanupProjects(t *testing.T, db *database.PostgresDB, names ...string) {
	ctx := context.Background()
	for _, name := range names {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM projects WHERE name = $1", name)
	}
}

// cleanupSkills removes test skills from the database
func cleanupSkills(t *testing.T, db *database.PostgresDB, names ...string) {
	ctx := context.Background()
	for _, name := range names {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM skills WHERE name = $1", name)
	}
}

// cleanupReminders removes test reminders from the database
func cleanupReminders(t *testing.T, db *database.PostgresDB, titles ...string) {
	ctx := context.Background()
	for _, title := range titles {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM reminders WHERE title = $1", title)
	}
}

// cleanupConversations removes test conversations and their messages
func cleanupConversations(t *testing.T, db *database.PostgresDB, ids ...uuid.UUID) {
	ctx := context.Background()
	for _, id := range ids {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM messages WHERE conversation_id = $1", id)
		_, _ = db.Pool.Exec(ctx, "DELETE FROM conversations WHERE id = $1", id)
	}
}

// cleanupMemoryFacts removes test memory facts from the database
func cleanupMemoryFacts(t *testing.T, db *database.PostgresDB, contents ...string) {
	ctx := context.Background()
	for _, content := range contents {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM memory_facts WHERE content = $1", content)
	}
}
