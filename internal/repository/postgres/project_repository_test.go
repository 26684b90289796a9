package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelahq/angela/internal/domain"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
)

// createTestProject creates a project with test data
func createTestProject(name string) *domain.Project {
	now := time.Now()
	return &domain.Project{
		ID:          uuid.New(),
		Name:        name,
		Slug:        "test-project-" + uuid.New().String()[:8],
		Description: "Test project description",
		Status:      domain.ProjectStatusActive,
		Priority:    3,
		Tags:        []string{"test", "angela"},
		Notes:       "",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestProjectRepository_Create(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	projectRepo := NewProjectRepository(db)
	ctx := context.Background()
	projectName := "Test Project Create"

	cleanupProjects(t, db, projectName)
	defer cleanupProjects(t, db, projectName)

	project := createTestProject(projectName)

	err := projectRepo.Create(ctx, project)
	require.NoError(t, err)

	// Verify by fetching
	fetched, err := projectRepo.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, fetched.ID)
	assert.Equal(t, project.Name, fetched.Name)
	assert.Equal(t, domain.ProjectStatusActive, fetched.Status)
	assert.Equal(t, project.Tags, fetched.Tags)
}

func TestProjectRepository_GetByID(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	projectRepo := NewProjectRepository(db)
	ctx := context.Background()
	projectName := "Test Project GetByID"

	cleanupProjects(t, db, projectName)
	defer cleanupProjects(t, db, projectName)

	project := createTestProject(projectName)
	err := projectRepo.Create(ctx, project)
	require.NoError(t, err)

	t.Run("existing project", func(t *testing.T) {
		fetched, err := projectRepo.GetByID(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, project.ID, fetched.ID)
		assert.Equal(t, project.Name, fetched.Name)
	})

	t.Run("non-existent project", func(t *testing.T) {
		_, err := projectRepo.GetByID(ctx, uuid.New())
		assert.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestProjectRepository_GetBySlug(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	projectRepo := NewProjectRepository(db)
	ctx := context.Background()
	projectName := "Test Project GetBySlug"

	cleanupProjects(t, db, projectName)
	defer cleanupProjects(t, db, projectName)

	project := createTestProject(projectName)
	err := projectRepo.Create(ctx, project)
	require.NoError(t, err)

	t.Run("existing slug", func(t *testing.T) {
		fetched, err := projectRepo.GetBySlug(ctx, project.Slug)
		require.NoError(t, err)
		assert.Equal(t, project.ID, fetched.ID)
		assert.Equal(t, project.Slug, fetched.Slug)
	})

	t.Run("non-existent slug", func(t *testing.T) {
		_, err := projectRepo.GetBySlug(ctx, "nonexistent-slug")
		assert.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestProjectRepository_Update(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	projectRepo := NewProjectRepository(db)
	ctx := context.Background()
	projectName := "Test Project Update"

	cleanupProjects(t, db, projectName)
	defer cleanupProjects(t, db, projectName)

	project := createTestProject(projectName)
	err := projectRepo.Create(ctx, project)
	require.NoError(t, err)

	// Update project
	deadline := time.Now().Add(72 * time.Hour).Truncate(time.Second)
	project.Description = "Updated description"
	project.Status = domain.ProjectStatusPaused
	project.Deadline = &deadline
	err = projectRepo.Update(ctx, project)
	require.NoError(t, err)

	// Verify update
	fetched, err := projectRepo.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated description", fetched.Description)
	assert.Equal(t, domain.ProjectStatusPaused, fetched.Status)
	require.NotNil(t, fetched.Deadline)
	assert.WithinDuration(t, deadline, *fetched.Deadline, time.Second)
}

func TestProjectRepository_Delete(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	projectRepo := NewProjectRepository(db)
	ctx := context.Background()
	projectName := "Test Project Delete"

	cleanupProjects(t, db, projectName)

	project := createTestProject(projectName)
	err := projectRepo.Create(ctx, project)
	require.NoError(t, err)

	// Verify exists
	_, err = projectRepo.GetByID(ctx, project.ID)
	require.NoError(t, err)

	// Delete
	err = projectRepo.Delete(ctx, project.ID)
	require.NoError(t, err)

	// Verify deleted
	_, err = projectRepo.GetByID(ctx, project.ID)
	assert.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestProjectRepository_List(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	projectRepo := NewProjectRepository(db)
	ctx := context.Background()
	projectName1 := "Test Project List Alpha"
	projectName2 := "Test Project List Beta"

	cleanupProjects(t, db, projectName1, projectName2)
	defer cleanupProjects(t, db, projectName1, projectName2)

	project1 := createTestProject(projectName1)
	err := projectRepo.Create(ctx, project1)
	require.NoError(t, err)

	project2 := createTestProject(projectName2)
	project2.Status = domain.ProjectStatusPaused
	project2.Tags = []string{"test", "side-quest"}
	err = projectRepo.Create(ctx, project2)
	require.NoError(t, err)

	t.Run("filter by status", func(t *testing.T) {
		status := domain.ProjectStatusPaused
		list, err := projectRepo.List(ctx, &domain.ProjectFilter{
			Status: &status,
			Limit:  50,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, list.TotalCount, int64(1))
		for _, p := range list.Projects {
			assert.Equal(t, domain.ProjectStatusPaused, p.Status)
		}
	})

	t.Run("filter by tag", func(t *testing.T) {
		tag := "side-quest"
		list, err := projectRepo.List(ctx, &domain.ProjectFilter{
			Tag:   &tag,
			Limit: 50,
		})
		require.NoError(t, err)
		require.GreaterOrEqual(t, list.TotalCount, int64(1))
		found := false
		for _, p := range list.Projects {
			if p.ID == project2.ID {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("search by name", func(t *testing.T) {
		search := "Project List Alpha"
		list, err := projectRepo.List(ctx, &domain.ProjectFilter{
			Search: &search,
			Limit:  50,
		})
		require.NoError(t, err)
		require.GreaterOrEqual(t, list.TotalCount, int64(1))
		assert.Equal(t, projectName1, list.Projects[0].Name)
	})
}

func TestProjectRepository_SlugExists(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	projectRepo := NewProjectRepository(db)
	ctx := context.Background()
	projectName := "Test Project SlugExists"

	cleanupProjects(t, db, projectName)
	defer cleanupProjects(t, db, projectName)

	project := createTestProject(projectName)

	t.Run("slug does not exist", func(t *testing.T) {
		exists, err := projectRepo.SlugExists(ctx, project.Slug)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("slug exists", func(t *testing.T) {
		err := projectRepo.Create(ctx, project)
		require.NoError(t, err)

		exists, err := projectRepo.SlugExists(ctx, project.Slug)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}
