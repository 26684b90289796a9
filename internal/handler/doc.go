// Package handler contains HTTP request handlers for Angela.
//
// Handlers are the entry point for HTTP requests, responsible for:
//   - Request parsing and validation
//   - Authentication context extraction
//   - Calling appropriate services
//   - Response formatting
//   - Error response mapping
//
// # Route Organization
//
// Routes are organized by resource:
//   - /api/auth/* - Authentication routes (no auth required)
//   - /api/v1/* - Dashboard routes (JWT authentication)
//   - /api/app/* - Native app and agent routes (API key authentication)
//
// The v1 and app groups mount the same resource handlers; only the
// authentication middleware in front of them differs.
//
// # Error Handling
//
// Handlers convert domain errors to appropriate HTTP status codes
// using the apperrors package for consistent error responses.
//
// # Thread Safety
//
// All handlers are safe for concurrent use.
package handler
