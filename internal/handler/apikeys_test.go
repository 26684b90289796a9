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

// MockAPIKeyService mocks the API key management surface for testing.
type MockAPIKeyService struct {
	mock.Mock
}

func (m *MockAPIKeyService) CreateAPIKey(ctx context.Context, input *domain.APIKeyInput) (*domain.APIKeyCreateResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKeyCreateResult), args.Error(1)
}

func (m *MockAPIKeyService) ListAPIKeys(ctx context.Context) ([]domain.APIKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.APIKey), args.Error(1)
}

func (m *MockAPIKeyService) DeleteAPIKey(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func setupAPIKeysTestApp(mockSvc *MockAPIKeyService) *fiber.App {
	app := fiber.New()
	h := NewAPIKeysHandler(mockSvc, zap.NewNop())

	app.Get("/api/v1/apikeys", h.ListAPIKeys)
	app.Post("/api/v1/apikeys", h.CreateAPIKey)
	app.Delete("/api/v1/apikeys/:id", h.DeleteAPIKey)

	return app
}

func TestAPIKeysHandler_ListAPIKeys(t *testing.T) {
	t.Run("successfully lists keys", func(t *testing.T) {
		mockSvc := new(MockAPIKeyService)
		app := setupAPIKeysTestApp(mockSvc)

		keys := []domain.APIKey{*testutil.NewTestAPIKey(), *testutil.NewTestAPIKey()}
		mockSvc.On("ListAPIKeys", mock.Anything).Return(keys, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/apikeys", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result["data"], 2)

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 500 on service error", func(t *testing.T) {
		mockSvc := new(MockAPIKeyService)
		app := setupAPIKeysTestApp(mockSvc)

		mockSvc.On("ListAPIKeys", mock.Anything).Return(nil, assert.AnError)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/apikeys", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestAPIKeysHandler_CreateAPIKey(t *testing.T) {
	t.Run("successfully creates key", func(t *testing.T) {
		mockSvc := new(MockAPIKeyService)
		app := setupAPIKeysTestApp(mockSvc)

		key := testutil.NewTestAPIKey()
		key.Name = "automation"
		result := &domain.APIKeyCreateResult{
			APIKey:    key,
			SecretKey: "as-plaintext-secret",
		}

		mockSvc.On("CreateAPIKey", mock.Anything, mock.MatchedBy(func(input *domain.APIKeyInput) bool {
			return input.Name == "automation"
		})).Return(result, nil)

		body, _ := json.Marshal(map[string]any{
			"name":   "automation",
			"scopes": []string{"chat:write"},
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/apikeys", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var payload map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&payload)
		assert.Equal(t, "as-plaintext-secret", payload["secretKey"])
		assert.NotEmpty(t, payload["note"])

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 400 on validation error", func(t *testing.T) {
		mockSvc := new(MockAPIKeyService)
		app := setupAPIKeysTestApp(mockSvc)

		mockSvc.On("CreateAPIKey", mock.Anything, mock.Anything).
			Return(nil, apperrors.Validation("name is required"))

		body, _ := json.Marshal(map[string]string{})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/apikeys", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("returns 400 for invalid body", func(t *testing.T) {
		mockSvc := new(MockAPIKeyService)
		app := setupAPIKeysTestApp(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/apikeys", bytes.NewReader([]byte("{broken")))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAPIKeysHandler_DeleteAPIKey(t *testing.T) {
	t.Run("successfully revokes key", func(t *testing.T) {
		mockSvc := new(MockAPIKeyService)
		app := setupAPIKeysTestApp(mockSvc)

		keyID := uuid.New()
		mockSvc.On("DeleteAPIKey", mock.Anything, keyID).Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/apikeys/"+keyID.String(), nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		mockSvc.AssertExpectations(t)
	})

	t.Run("returns 400 for invalid key ID", func(t *testing.T) {
		mockSvc := new(MockAPIKeyService)
		app := setupAPIKeysTestApp(mockSvc)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/apikeys/not-a-uuid", nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("returns 404 when key not found", func(t *testing.T) {
		mockSvc := new(MockAPIKeyService)
		app := setupAPIKeysTestApp(mockSvc)

		keyID := uuid.New()
		mockSvc.On("DeleteAPIKey", mock.Anything, keyID).Return(apperrors.NotFound("api key"))

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/apikeys/"+keyID.String(), nil)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
