package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/domain"
	"github.com/angelahq/angela/internal/middleware"
	apperrors "github.com/angelahq/angela/internal/pkg/errors"
	"github.com/angelahq/angela/internal/service"
)

// AuditLogger records resource lifecycle events for the audit trail.
// Implemented by service.AuditService. Writes are fire-and-forget so a
// broken audit store never fails the request that triggered it.
type AuditLogger interface {
	LogCreated(ctx context.Context, resourceType domain.AuditResourceType, resourceID uuid.UUID, resourceName string, req service.RequestContext)
	LogUpdated(ctx context.Context, resourceType domain.AuditResourceType, resourceID uuid.UUID, resourceName string, req service.RequestContext)
	LogDeleted(ctx context.Context, resourceType domain.AuditResourceType, resourceID uuid.UUID, resourceName string, req service.RequestContext)
}

// Pagination represents offset pagination parameters for list operations.
type Pagination struct {
	Limit  int
	Offset int
}

// DefaultPagination provides default pagination values.
var DefaultPagination = Pagination{Limit: 50, Offset: 0}

// ParsePagination extracts limit and offset query parameters with validation.
// maxLimit specifies the maximum allowed limit (0 for no maximum).
func ParsePagination(c *fiber.Ctx, maxLimit int) Pagination {
	p := Pagination{
		Limit:  parseQueryInt(c, "limit", DefaultPagination.Limit),
		Offset: parseQueryInt(c, "offset", DefaultPagination.Offset),
	}

	if p.Limit < 0 {
		p.Limit = DefaultPagination.Limit
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	return p
}

// parseQueryInt parses an integer query parameter with a default value.
func parseQueryInt(c *fiber.Ctx, key string, defaultValue int) int {
	val := c.Query(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// parseQueryIntPtr parses an integer query parameter.
// Returns nil if the parameter is empty or invalid.
func parseQueryIntPtr(c *fiber.Ctx, key string) *int {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return nil
	}
	return &intVal
}

// parseQueryUUID parses a UUID query parameter.
// Returns nil if the parameter is empty or invalid.
func parseQueryUUID(c *fiber.Ctx, key string) *uuid.UUID {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return nil
	}
	return &id
}

// parseQueryBool parses a boolean query parameter.
// Returns nil if the parameter is empty or invalid.
func parseQueryBool(c *fiber.Ctx, key string) *bool {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	boolVal, err := strconv.ParseBool(val)
	if err != nil {
		return nil
	}
	return &boolVal
}

// parseQueryFloat parses a float query parameter.
// Returns nil if the parameter is empty or invalid.
func parseQueryFloat(c *fiber.Ctx, key string) *float64 {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	floatVal, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil
	}
	return &floatVal
}

// parseQueryTime parses an RFC 3339 timestamp query parameter.
// Returns nil if the parameter is empty or invalid.
func parseQueryTime(c *fiber.Ctx, key string) *time.Time {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

// parseQueryString returns a pointer to a non-empty query parameter.
func parseQueryString(c *fiber.Ctx, key string) *string {
	val := c.Query(key)
	if val == "" {
		return nil
	}
	return &val
}

// parsePathID parses the :id path parameter. On failure it has already
// answered the request with a 400.
func parsePathID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		_ = errorResponse(c, fiber.StatusBadRequest, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// errorResponse creates a standardized JSON error response.
func errorResponse(c *fiber.Ctx, statusCode int, message string) error {
	errorName := "Error"
	switch statusCode {
	case fiber.StatusBadRequest:
		errorName = "Bad Request"
	case fiber.StatusUnauthorized:
		errorName = "Unauthorized"
	case fiber.StatusForbidden:
		errorName = "Forbidden"
	case fiber.StatusNotFound:
		errorName = "Not Found"
	case fiber.StatusConflict:
		errorName = "Conflict"
	case fiber.StatusUnprocessableEntity:
		errorName = "Unprocessable Entity"
	case fiber.StatusTooManyRequests:
		errorName = "Too Many Requests"
	case fiber.StatusInternalServerError:
		errorName = "Internal Server Error"
	case fiber.StatusServiceUnavailable:
		errorName = "Service Unavailable"
	}

	return c.Status(statusCode).JSON(ErrorResponse{
		Error:   errorName,
		Message: message,
	})
}

// respondError answers a failed service call. AppErrors carry their own
// status and a user-facing message; anything else is logged and hidden
// behind a plain 500.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error, action string) error {
	if appErr := apperrors.GetAppError(err); appErr != nil && appErr.StatusCode < fiber.StatusInternalServerError {
		return errorResponse(c, appErr.StatusCode, appErr.Message)
	}
	logger.Error("failed to "+action, zap.Error(err))
	return errorResponse(c, fiber.StatusInternalServerError, "Failed to "+action)
}

// requestContext captures the request fields audit entries record.
func requestContext(c *fiber.Ctx) service.RequestContext {
	return service.RequestContext{
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
		RequestID: middleware.GetRequestID(c),
	}
}
