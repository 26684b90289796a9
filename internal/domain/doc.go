// Package domain contains the core business entities and types for Angela.
//
// This package defines:
//   - Entity types (Project, Meeting, Skill, Pattern, Reminder, etc.)
//   - Value objects and enums
//   - Input/output types for service operations
//   - Domain-level state transitions (skill practice and decay, pattern
//     reinforcement, reminder recurrence)
//
// # Design Philosophy
//
// Domain types are persistence-agnostic and represent the core
// business concepts independent of how they are stored or transmitted.
// State transitions with arithmetic in them (proficiency gain, confidence
// decay, recurrence advance) live here as methods so they can be tested
// without a database.
//
// # Key Entities
//
//   - Project: A tracked personal project with status and priority
//   - Meeting: A calendar meeting, optionally linked to a project
//   - Skill: A learned skill with proficiency that grows and decays
//   - Pattern: An observed behavioral pattern with confidence
//   - Reminder: A due-dated reminder with recurrence
//   - Conversation / Message: Chat history with the companion model
//   - MemoryFact: An embedded long-term memory for retrieval
//   - TrainingExample / TrainingRun: Fine-tuning dataset tracking
//
// # Naming Conventions
//
// Types ending in "Input" are used for create/update operations.
// Types ending in "Filter" are used for query operations.
package domain
