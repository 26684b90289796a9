// Package repository contains data access implementations for Angela.
//
// Repositories provide persistence operations for domain entities,
// abstracting the underlying data stores.
//
// # Architecture
//
// Repository interfaces are defined at the service layer (consumer-defined
// interfaces); this package contains the concrete implementations.
//
// # Data Stores
//
// Everything durable lives in PostgreSQL: the aggregate repositories use
// pgx, the audit trail uses sqlx. Redis carries caches, rate limit
// counters and the job queue, none of it authoritative.
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use.
// Connection pools are managed at the database layer.
package repository
