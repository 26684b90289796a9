package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/domain"
)

// AuditRepository defines audit log repository operations
type AuditRepository interface {
	CreateAuditLog(ctx context.Context, input *domain.AuditLogInput) (*domain.AuditLog, error)
	GetAuditLog(ctx context.Context, id uuid.UUID) (*domain.AuditLog, error)
	ListAuditLogs(ctx context.Context, filter *domain.AuditLogFilter) (*domain.AuditLogList, error)
	DeleteAuditLogsBefore(ctx context.Context, before time.Time) (int64, error)
}

// RequestContext carries the request metadata recorded alongside an
// audit entry
type RequestContext struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// AuditService records who did what to the brain. Write failures are
// logged and swallowed so auditing never breaks the operation it
// describes.
type AuditService struct {
	auditRepo AuditRepository
	logger    *zap.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Log creates an audit entry and reports failure to the caller. Most
// call sites want the fire-and-forget variants below instead.
func (s *AuditService) Log(ctx context.Context, input *domain.AuditLogInput) (*domain.AuditLog, error) {
	return s.auditRepo.CreateAuditLog(ctx, input)
}

func (s *AuditService) write(ctx context.Context, input *domain.AuditLogInput) {
	if _, err := s.auditRepo.CreateAuditLog(ctx, input); err != nil {
		s.logger.Warn("audit write failed",
			zap.String("action", string(input.Action)),
			zap.Error(err))
	}
}

// LogLogin records a successful dashboard login
func (s *AuditService) LogLogin(ctx context.Context, userID uuid.UUID, email, ipAddress, userAgent string) {
	s.write(ctx, &domain.AuditLogInput{
		ActorID:      &userID,
		ActorEmail:   email,
		ActorType:    "user",
		Action:       domain.AuditActionLogin,
		ResourceType: domain.AuditResourceUser,
		ResourceID:   &userID,
		ResourceName: email,
		Description:  fmt.Sprintf("User %s logged in", email),
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
	})
}

// LogLoginFailed records a rejected login attempt
func (s *AuditService) LogLoginFailed(ctx context.Context, email, ipAddress, userAgent, reason string) {
	s.write(ctx, &domain.AuditLogInput{
		ActorEmail:   email,
		ActorType:    "user",
		Action:       domain.AuditActionLoginFailed,
		ResourceType: domain.AuditResourceUser,
		ResourceName: email,
		Description:  fmt.Sprintf("Failed login attempt for %s: %s", email, reason),
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
	})
}

// LogLogout records a logout
func (s *AuditService) LogLogout(ctx context.Context, userID uuid.UUID, email string) {
	s.write(ctx, &domain.AuditLogInput{
		ActorID:      &userID,
		ActorEmail:   email,
		ActorType:    "user",
		Action:       domain.AuditActionLogout,
		ResourceType: domain.AuditResourceUser,
		ResourceID:   &userID,
		ResourceName: email,
		Description:  fmt.Sprintf("User %s logged out", email),
	})
}

// LogAPIKeyCreated records issuance of an API key
func (s *AuditService) LogAPIKeyCreated(ctx context.Context, keyID uuid.UUID, keyName string) {
	s.write(ctx, &domain.AuditLogInput{
		ActorType:    "user",
		Action:       domain.AuditActionAPIKeyCreated,
		ResourceType: domain.AuditResourceAPIKey,
		ResourceID:   &keyID,
		ResourceName: keyName,
		Description:  fmt.Sprintf("API key %q was created", keyName),
	})
}

// LogAPIKeyRevoked records revocation of an API key
func (s *AuditService) LogAPIKeyRevoked(ctx context.Context, keyID uuid.UUID, keyName string) {
	s.write(ctx, &domain.AuditLogInput{
		ActorType:    "user",
		Action:       domain.AuditActionAPIKeyRevoked,
		ResourceType: domain.AuditResourceAPIKey,
		ResourceID:   &keyID,
		ResourceName: keyName,
		Description:  fmt.Sprintf("API key %q was revoked", keyName),
	})
}

// LogCreated records creation of a resource
func (s *AuditService) LogCreated(ctx context.Context, resourceType domain.AuditResourceType, resourceID uuid.UUID, resourceName string, req RequestContext) {
	s.write(ctx, &domain.AuditLogInput{
		ActorType:    "user",
		Action:       domain.AuditActionResourceCreated,
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		ResourceName: resourceName,
		Description:  fmt.Sprintf("%s %q was created", resourceType, resourceName),
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		RequestID:    req.RequestID,
	})
}

// LogUpdated records modification of a resource
func (s *AuditService) LogUpdated(ctx context.Context, resourceType domain.AuditResourceType, resourceID uuid.UUID, resourceName string, req RequestContext) {
	s.write(ctx, &domain.AuditLogInput{
		ActorType:    "user",
		Action:       domain.AuditActionResourceUpdated,
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		ResourceName: resourceName,
		Description:  fmt.Sprintf("%s %q was updated", resourceType, resourceName),
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		RequestID:    req.RequestID,
	})
}

// LogDeleted records deletion of a resource
func (s *AuditService) LogDeleted(ctx context.Context, resourceType domain.AuditResourceType, resourceID uuid.UUID, resourceName string, req RequestContext) {
	s.write(ctx, &domain.AuditLogInput{
		ActorType:    "user",
		Action:       domain.AuditActionResourceDeleted,
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		ResourceName: resourceName,
		Description:  fmt.Sprintf("%s %q was deleted", resourceType, resourceName),
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		RequestID:    req.RequestID,
	})
}

// LogMemoryForgotten records erasure of a memory fact. Forgetting is
// the one delete a personal assistant must be able to prove happened.
func (s *AuditService) LogMemoryForgotten(ctx context.Context, factID uuid.UUID, content string, req RequestContext) {
	s.write(ctx, &domain.AuditLogInput{
		ActorType:    "user",
		Action:       domain.AuditActionMemoryForgotten,
		ResourceType: domain.AuditResourceMemory,
		ResourceID:   &factID,
		Description:  "Memory fact was forgotten",
		Metadata:     map[string]any{"content": content},
		IPAddress:    req.IPAddress,
		UserAgent:    req.UserAgent,
		RequestID:    req.RequestID,
	})
}

// LogDatasetExported records a training dataset export
func (s *AuditService) LogDatasetExported(ctx context.Context, runID uuid.UUID, runName, datasetKey string, exampleCount int) {
	s.write(ctx, &domain.AuditLogInput{
		ActorType:    "user",
		Action:       domain.AuditActionDatasetExported,
		ResourceType: domain.AuditResourceTraining,
		ResourceID:   &runID,
		ResourceName: runName,
		Description:  fmt.Sprintf("Exported %d examples to %s", exampleCount, datasetKey),
		Metadata:     map[string]any{"datasetKey": datasetKey, "exampleCount": exampleCount},
	})
}

// LogToolCalled records an MCP tool invocation
func (s *AuditService) LogToolCalled(ctx context.Context, toolName string, metadata map[string]any) {
	s.write(ctx, &domain.AuditLogInput{
		ActorType:    "system",
		Action:       domain.AuditActionToolCalled,
		ResourceType: domain.AuditResourceTool,
		ResourceName: toolName,
		Description:  fmt.Sprintf("Tool %s was called", toolName),
		Metadata:     metadata,
	})
}

// Get retrieves a single audit entry
func (s *AuditService) Get(ctx context.Context, id uuid.UUID) (*domain.AuditLog, error) {
	return s.auditRepo.GetAuditLog(ctx, id)
}

// List retrieves audit entries matching the filter
func (s *AuditService) List(ctx context.Context, filter *domain.AuditLogFilter) (*domain.AuditLogList, error) {
	return s.auditRepo.ListAuditLogs(ctx, filter)
}

// DeleteBefore purges audit entries older than the cutoff. Run by the
// nightly cleanup job when retention is enabled.
func (s *AuditService) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	return s.auditRepo.DeleteAuditLogsBefore(ctx, before)
}
