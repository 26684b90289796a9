// Package service contains the business logic layer for Angela.
//
// Services coordinate between handlers and repositories, implementing
// domain rules and orchestrating operations across repositories, the
// local Ollama model server, and the task queue.
//
// Services depend on repository interfaces defined in this package,
// following the dependency inversion principle. Each service handles a
// specific domain area (projects, memory, conversations, training, ...).
//
// # Architecture
//
// The service layer sits between:
//   - HTTP handlers and MCP tools (presentation layer)
//   - Repository implementations (data access layer)
//   - Ollama and MinIO clients (external systems)
//
// Services are responsible for:
//   - Business logic and validation
//   - Orchestrating multiple repository calls
//   - Degrading gracefully when the model server is down
//   - Realtime event publishing
//
// # Thread Safety
//
// All services are designed to be safe for concurrent use from
// multiple goroutines.
package service
