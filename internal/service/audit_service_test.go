package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/domain"
)

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) CreateAuditLog(ctx context.Context, input *domain.AuditLogInput) (*domain.AuditLog, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditLog), args.Error(1)
}

func (m *MockAuditRepository) GetAuditLog(ctx context.Context, id uuid.UUID) (*domain.AuditLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditLog), args.Error(1)
}

func (m *MockAuditRepository) ListAuditLogs(ctx context.Context, filter *domain.AuditLogFilter) (*domain.AuditLogList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditLogList), args.Error(1)
}

func (m *MockAuditRepository) DeleteAuditLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func capturedInput(repo *MockAuditRepository) *domain.AuditLogInput {
	for _, call := range repo.Calls {
		if call.Method == "CreateAuditLog" {
			return call.Arguments.Get(1).(*domain.AuditLogInput)
		}
	}
	return nil
}

func TestAuditService_LogLogin(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo, zap.NewNop())
	userID := uuid.New()

	repo.On("CreateAuditLog", mock.Anything, mock.AnythingOfType("*domain.AuditLogInput")).Return(&domain.AuditLog{}, nil)

	svc.LogLogin(context.Background(), userID, "angela@example.com", "127.0.0.1", "test-agent")

	input := capturedInput(repo)
	require.NotNil(t, input)
	assert.Equal(t, domain.AuditActionLogin, input.Action)
	assert.Equal(t, "angela@example.com", input.ActorEmail)
	require.NotNil(t, input.ActorID)
	assert.Equal(t, userID, *input.ActorID)
	assert.Equal(t, "127.0.0.1", input.IPAddress)
	assert.Contains(t, input.Description, "logged in")
}

func TestAuditService_WriteFailureIsSwallowed(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo, zap.NewNop())

	repo.On("CreateAuditLog", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	// Must not panic or surface the failure
	svc.LogLoginFailed(context.Background(), "angela@example.com", "127.0.0.1", "test-agent", "invalid password")

	repo.AssertNumberOfCalls(t, "CreateAuditLog", 1)
}

func TestAuditService_LogResourceLifecycle(t *testing.T) {
	resourceID := uuid.New()
	req := RequestContext{IPAddress: "10.0.0.1", UserAgent: "test-agent", RequestID: "req-123"}

	t.Run("created", func(t *testing.T) {
		repo := new(MockAuditRepository)
		svc := NewAuditService(repo, zap.NewNop())
		repo.On("CreateAuditLog", mock.Anything, mock.Anything).Return(&domain.AuditLog{}, nil)

		svc.LogCreated(context.Background(), domain.AuditResourceProject, resourceID, "Garden v2", req)

		input := capturedInput(repo)
		require.NotNil(t, input)
		assert.Equal(t, domain.AuditActionResourceCreated, input.Action)
		assert.Equal(t, domain.AuditResourceProject, input.ResourceType)
		assert.Equal(t, "Garden v2", input.ResourceName)
		assert.Equal(t, "req-123", input.RequestID)
		assert.Contains(t, input.Description, "was created")
	})

	t.Run("deleted", func(t *testing.T) {
		repo := new(MockAuditRepository)
		svc := NewAuditService(repo, zap.NewNop())
		repo.On("CreateAuditLog", mock.Anything, mock.Anything).Return(&domain.AuditLog{}, nil)

		svc.LogDeleted(context.Background(), domain.AuditResourceReminder, resourceID, "Water plants", req)

		input := capturedInput(repo)
		require.NotNil(t, input)
		assert.Equal(t, domain.AuditActionResourceDeleted, input.Action)
		assert.Contains(t, input.Description, "was deleted")
	})
}

func TestAuditService_LogMemoryForgotten(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo, zap.NewNop())
	factID := uuid.New()

	repo.On("CreateAuditLog", mock.Anything, mock.Anything).Return(&domain.AuditLog{}, nil)

	svc.LogMemoryForgotten(context.Background(), factID, "Prefers the window seat", RequestContext{})

	input := capturedInput(repo)
	require.NotNil(t, input)
	assert.Equal(t, domain.AuditActionMemoryForgotten, input.Action)
	assert.Equal(t, "Prefers the window seat", input.Metadata["content"])
}

func TestAuditService_LogToolCalled(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo, zap.NewNop())

	repo.On("CreateAuditLog", mock.Anything, mock.Anything).Return(&domain.AuditLog{}, nil)

	svc.LogToolCalled(context.Background(), "gmail_send", map[string]any{"to": "sam@example.com"})

	input := capturedInput(repo)
	require.NotNil(t, input)
	assert.Equal(t, "system", input.ActorType)
	assert.Equal(t, domain.AuditResourceTool, input.ResourceType)
	assert.Equal(t, "gmail_send", input.ResourceName)
}

func TestAuditService_DeleteBefore(t *testing.T) {
	repo := new(MockAuditRepository)
	svc := NewAuditService(repo, zap.NewNop())
	cutoff := time.Now().AddDate(0, -6, 0)

	repo.On("DeleteAuditLogsBefore", mock.Anything, cutoff).Return(int64(42), nil)

	deleted, err := svc.DeleteBefore(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
}
