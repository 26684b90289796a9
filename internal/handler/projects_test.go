package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/domain"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
	"github.com/angelahq/angela/internal/service"
	"github.com/angelahq/angela/internal/testutil"
)

// MockAuditLogger mocks the audit trail for handler tests. Shared by
// every resource handler test in this package.
type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) LogCreated(ctx context.Context, resourceType domain.AuditResourceType, resourceID uuid.UUID, resourceName string, req service.RequestContext) {
	m.Called(ctx, resourceType, resourceID, resourceName, req)
}

func (m *MockAuditLogger) LogUpdated(ctx context.Context, resourceType domain.AuditResourceType, resourceID uuid.UUID, resourceName string, req service.RequestContext) {
	m.Called(ctx, resourceType, resourceID, resourceName, req)
}

func (m *MockAuditLogger) LogDeleted(ctx context.Context, resourceType domain.AuditResourceType, resourceID uuid.UUID, resourceName string, req service.RequestContext) {
	m.Called(ctx, resourceType, resourceID, resourceName, req)
}

func (m *MockAuditLogger) LogDatasetExported(ctx context.Context, runID uuid.UUID, runName, datasetKey string, exampleCount int) {
	m.Called(ctx, runID, runName, datasetKey, exampleCount)
}

// MockProjectService mocks the project service for testing.
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, input *domain.ProjectInput) (*domain.Project, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) Get(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) GetBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) Update(ctx context.Context, id uuid.UUID, input *domain.ProjectUpdateInput) (*domain.Project, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProjectService) List(ctx context.Context, filter *domain.ProjectFilter) (*domain.ProjectList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProjectList), args.Error(1)
}

func setupProjectsTestApp(mockSvc *MockProjectService, mockAudit *MockAuditLogger) *fiber.App {
	app := fiber.New()
	h := NewProjectsHandler(mockSvc, mockAudit, zap.NewNop())

	app.Get("/api/v1/projects", h.ListProjects)
	app.Post("/api/v1/projects", h.CreateProject)
	app.Get("/api/v1/projects/slug/:slug", h.GetProjectBySlug)
	app.Get("/api/v1/projects/:id", h.GetProject)
	app.Patch("/api/v1/projects/:id", h.UpdateProject)
	app.Delete("/api/v1/projects/:id", h.DeleteProject)

	return app
}

// --- ListProjects Tests ---

func TestProjectsHandler_ListProjects(t *testing.T) {
	t.Run("successfully lists projects", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		expected := &domain.ProjectList{
			Projects:   []domain.Project{*testutil.NewTestProject(), *testutil.NewTestProject()},
			TotalCount: 2,
		}

		mockSvc.On("List", mock.Anything, mock.MatchedBy(func(f *domain.ProjectFilter) bool {
			return f.Status == nil && f.Limit == 50
		})).Return(expected, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result domain.ProjectList
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Projects, 2)
		assert.EqualValues(t, 2, result.TotalCount)

		mockSvc.AssertExpectations(t)
	})

	t.Run("passes status and tag filters through", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		mockSvc.On("List", mock.Anything, mock.MatchedBy(func(f *domain.ProjectFilter) bool {
			return f.Status != nil && *f.Status == domain.ProjectStatusActive &&
				f.Tag != nil && *f.Tag == "garden" && f.Limit == 10
		})).Return(&domain.ProjectList{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects?status=active&tag=garden&limit=10", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 400 for invalid status", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects?status=bogus", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("returns 500 on service error", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		mockSvc.On("List", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

// --- GetProject Tests ---

func TestProjectsHandler_GetProject(t *testing.T) {
	t.Run("successfully gets project", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		project := testutil.NewTestProject()
		mockSvc.On("Get", mock.Anything, project.ID).Return(project, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/"+project.ID.String(), nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result domain.Project
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, project.Name, result.Name)

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 400 for invalid project ID", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/invalid-uuid", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("returns 404 when project not found", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		projectID := uuid.New()
		mockSvc.On("Get", mock.Anything, projectID).Return(nil, apperrors.NotFound("project"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/"+projectID.String(), nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		mockSvc.AssertExpectations(t)
	})
}

// --- GetProjectBySlug Tests ---

func TestProjectsHandler_GetProjectBySlug(t *testing.T) {
	t.Run("successfully gets project by slug", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		project := testutil.NewTestProject()
		mockSvc.On("GetBySlug", mock.Anything, project.Slug).Return(project, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/slug/"+project.Slug, nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result domain.Project
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, project.ID, result.ID)

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 404 for unknown slug", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		mockSvc.On("GetBySlug", mock.Anything, "nope").Return(nil, apperrors.NotFound("project"))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects/slug/nope", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

// --- CreateProject Tests ---

func TestProjectsHandler_CreateProject(t *testing.T) {
	t.Run("successfully creates project and audits it", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		project := testutil.NewTestProject()
		project.Name = "Workshop Rebuild"

		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(input *domain.ProjectInput) bool {
			return input.Name == "Workshop Rebuild"
		})).Return(project, nil)
		mockAudit.On("LogCreated", mock.Anything, domain.AuditResourceProject, project.ID, "Workshop Rebuild", mock.Anything)

		body, _ := json.Marshal(map[string]any{
			"name":     "Workshop Rebuild",
			"priority": 4,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result domain.Project
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "Workshop Rebuild", result.Name)

		mockSvc.AssertExpectations(t)
		mockAudit.AssertExpectations(t)
	})

	t.Run("returns 400 for invalid body", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewReader([]byte("{broken")))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("returns 400 on validation error", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		mockSvc.On("Create", mock.Anything, mock.Anything).
			Return(nil, apperrors.Validation("name must be at least 2 characters"))

		body, _ := json.Marshal(map[string]string{"name": "x"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		mockAudit.AssertNotCalled(t, "LogCreated", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("returns 409 on slug conflict", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		mockSvc.On("Create", mock.Anything, mock.Anything).
			Return(nil, apperrors.Conflict("a project with this slug already exists"))

		body, _ := json.Marshal(map[string]string{"name": "Garden Overhaul"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

// --- UpdateProject Tests ---

func TestProjectsHandler_UpdateProject(t *testing.T) {
	t.Run("successfully updates project and audits it", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		project := testutil.NewTestProject()
		project.Status = domain.ProjectStatusPaused

		mockSvc.On("Update", mock.Anything, project.ID, mock.MatchedBy(func(input *domain.ProjectUpdateInput) bool {
			return input.Status != nil && *input.Status == domain.ProjectStatusPaused
		})).Return(project, nil)
		mockAudit.On("LogUpdated", mock.Anything, domain.AuditResourceProject, project.ID, project.Name, mock.Anything)

		body, _ := json.Marshal(map[string]string{"status": "paused"})
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/projects/"+project.ID.String(), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result domain.Project
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, domain.ProjectStatusPaused, result.Status)

		mockSvc.AssertExpectations(t)
		mockAudit.AssertExpectations(t)
	})

	t.Run("returns 404 when project not found", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		projectID := uuid.New()
		mockSvc.On("Update", mock.Anything, projectID, mock.Anything).
			Return(nil, apperrors.NotFound("project"))

		body, _ := json.Marshal(map[string]string{"notes": "updated"})
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/projects/"+projectID.String(), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

// --- DeleteProject Tests ---

func TestProjectsHandler_DeleteProject(t *testing.T) {
	t.Run("successfully deletes project and audits it", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		project := testutil.NewTestProject()

		mockSvc.On("Get", mock.Anything, project.ID).Return(project, nil)
		mockSvc.On("Delete", mock.Anything, project.ID).Return(nil)
		mockAudit.On("LogDeleted", mock.Anything, domain.AuditResourceProject, project.ID, project.Name, mock.Anything)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/projects/"+project.ID.String(), nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		mockSvc.AssertExpectations(t)
		mockAudit.AssertExpectations(t)
	})

	t.Run("returns 404 when project not found", func(t *testing.T) {
		mockSvc := new(MockProjectService)
		mockAudit := new(MockAuditLogger)
		app := setupProjectsTestApp(mockSvc, mockAudit)

		projectID := uuid.New()
		mockSvc.On("Get", mock.Anything, projectID).Return(nil, apperrors.NotFound("project"))

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/projects/"+projectID.String(), nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		mockAudit.AssertNotCalled(t, "LogDeleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
