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
	"github.com/angelahq/angela/internal/testutil"
)

// MockPatternService mocks the pattern service for testing.
type MockPatternService struct {
	mock.Mock
}

func (m *MockPatternService) Create(ctx context.Context, input *domain.PatternInput) (*domain.Pattern, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pattern), args.Error(1)
}

func (m *MockPatternService) Get(ctx context.Context, id uuid.UUID) (*domain.Pattern, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pattern), args.Error(1)
}

func (m *MockPatternService) Update(ctx context.Context, id uuid.UUID, input *domain.PatternUpdateInput) (*domain.Pattern, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pattern), args.Error(1)
}

func (m *MockPatternService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPatternService) List(ctx context.Context, filter *domain.PatternFilter) (*domain.PatternList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PatternList), args.Error(1)
}

func (m *MockPatternService) Reinforce(ctx context.Context, id uuid.UUID) (*domain.Pattern, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pattern), args.Error(1)
}

func (m *MockPatternService) Contradict(ctx context.Context, id uuid.UUID) (*domain.Pattern, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pattern), args.Error(1)
}

func setupPatternsTestApp(mockSvc *MockPatternService, mockAudit *MockAuditLogger) *fiber.App {
	app := fiber.New()
	h := NewPatternsHandler(mockSvc, mockAudit, zap.NewNop())

	app.Get("/api/v1/patterns", h.ListPatterns)
	app.Post("/api/v1/patterns", h.CreatePattern)
	app.Get("/api/v1/patterns/:id", h.GetPattern)
	app.Patch("/api/v1/patterns/:id", h.UpdatePattern)
	app.Delete("/api/v1/patterns/:id", h.DeletePattern)
	app.Post("/api/v1/patterns/:id/reinforce", h.ReinforcePattern)
	app.Post("/api/v1/patterns/:id/contradict", h.ContradictPattern)

	return app
}

func TestPatternsHandler_ListPatterns(t *testing.T) {
	t.Run("successfully lists patterns", func(t *testing.T) {
		mockSvc := new(MockPatternService)
		mockAudit := new(MockAuditLogger)
		app := setupPatternsTestApp(mockSvc, mockAudit)

		expected := &domain.PatternList{
			Patterns:   []domain.Pattern{*testutil.NewTestPattern()},
			TotalCount: 1,
		}
		mockSvc.On("List", mock.Anything, mock.Anything).Return(expected, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/patterns", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result domain.PatternList
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Patterns, 1)

		mockSvc.AssertExpectations(t)
	})

	t.Run("passes kind and confidence filters through", func(t *testing.T) {
		mockSvc := new(MockPatternService)
		mockAudit := new(MockAuditLogger)
		app := setupPatternsTestApp(mockSvc, mockAudit)

		mockSvc.On("List", mock.Anything, mock.MatchedBy(func(f *domain.PatternFilter) bool {
			return f.Kind != nil && *f.Kind == domain.PatternKindHabit &&
				f.Active != nil && *f.Active &&
				f.MinConfidence != nil && *f.MinConfidence == 0.5
		})).Return(&domain.PatternList{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/patterns?kind=habit&active=true&minConfidence=0.5", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 400 for invalid kind", func(t *testing.T) {
		mockSvc := new(MockPatternService)
		mockAudit := new(MockAuditLogger)
		app := setupPatternsTestApp(mockSvc, mockAudit)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/patterns?kind=quirk", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestPatternsHandler_CreatePattern(t *testing.T) {
	t.Run("successfully creates pattern and audits it", func(t *testing.T) {
		mockSvc := new(MockPatternService)
		mockAudit := new(MockAuditLogger)
		app := setupPatternsTestApp(mockSvc, mockAudit)

		pattern := testutil.NewTestPattern()

		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(input *domain.PatternInput) bool {
			return input.Kind == domain.PatternKindHabit
		})).Return(pattern, nil)
		mockAudit.On("LogCreated", mock.Anything, domain.AuditResourcePattern, pattern.ID, pattern.Description, mock.Anything)

		body, _ := json.Marshal(map[string]any{
			"kind":        "habit",
			"description": "Works best in the morning",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/patterns", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		mockSvc.AssertExpectations(t)
		mockAudit.AssertExpectations(t)
	})

	t.Run("returns 400 on validation error", func(t *testing.T) {
		mockSvc := new(MockPatternService)
		mockAudit := new(MockAuditLogger)
		app := setupPatternsTestApp(mockSvc, mockAudit)

		mockSvc.On("Create", mock.Anything, mock.Anything).
			Return(nil, apperrors.Validation("kind is required"))

		body, _ := json.Marshal(map[string]string{"description": "no kind given"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/patterns", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestPatternsHandler_ReinforcePattern(t *testing.T) {
	t.Run("successfully reinforces pattern", func(t *testing.T) {
		mockSvc := new(MockPatternService)
		mockAudit := new(MockAuditLogger)
		app := setupPatternsTestApp(mockSvc, mockAudit)

		pattern := testutil.NewTestPattern()
		pattern.EvidenceCount = 3
		pattern.Confidence = 0.72

		mockSvc.On("Reinforce", mock.Anything, pattern.ID).Return(pattern, nil)
		mockAudit.On("LogUpdated", mock.Anything, domain.AuditResourcePattern, pattern.ID, pattern.Description, mock.Anything)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/patterns/"+pattern.ID.String()+"/reinforce", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result domain.Pattern
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, 3, result.EvidenceCount)

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 404 when pattern not found", func(t *testing.T) {
		mockSvc := new(MockPatternService)
		mockAudit := new(MockAuditLogger)
		app := setupPatternsTestApp(mockSvc, mockAudit)

		patternID := uuid.New()
		mockSvc.On("Reinforce", mock.Anything, patternID).Return(nil, apperrors.NotFound("pattern"))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/patterns/"+patternID.String()+"/reinforce", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestPatternsHandler_ContradictPattern(t *testing.T) {
	t.Run("successfully contradicts pattern", func(t *testing.T) {
		mockSvc := new(MockPatternService)
		mockAudit := new(MockAuditLogger)
		app := setupPatternsTestApp(mockSvc, mockAudit)

		pattern := testutil.NewTestPattern()
		pattern.Confidence = 0.3

		mockSvc.On("Contradict", mock.Anything, pattern.ID).Return(pattern, nil)
		mockAudit.On("LogUpdated", mock.Anything, domain.AuditResourcePattern, pattern.ID, pattern.Description, mock.Anything)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/patterns/"+pattern.ID.String()+"/contradict", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result domain.Pattern
		json.NewDecoder(resp.Body).Decode(&result)
		assert.InDelta(t, 0.3, result.Confidence, 0.0001)

		mockSvc.AssertExpectations(t)
	})
}
