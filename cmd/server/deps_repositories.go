package main

import (
	"github.com/angelahq/angela/internal/pkg/di"
	"github.com/angelahq/angela/internal/repository/postgres"
)

// Repositories holds the data access layer
type Repositories struct {
	Users         *postgres.UserRepository
	APIKeys       *postgres.APIKeyRepository
	Projects      *postgres.ProjectRepository
	Meetings      *postgres.MeetingRepository
	Skills        *postgres.SkillRepository
	Patterns      *postgres.PatternRepository
	Reminders     *postgres.ReminderRepository
	Conversations *postgres.ConversationRepository
	Memories      *postgres.MemoryRepository
	Training      *postgres.TrainingRepository
	Audit         *postgres.AuditRepository
}

// registerRepositories registers the data access layer
func registerRepositories(c *di.Container) {
	c.MustRegister("repositories", di.Singleton, func(r di.Resolver) (any, error) {
		dbs, err := di.ResolveAs[*Databases](r, "databases")
		if err != nil {
			return nil, err
		}

		pg := dbs.Postgres
		return &Repositories{
			Users:         postgres.NewUserRepository(pg),
			APIKeys:       postgres.NewAPIKeyRepository(pg),
			Projects:      postgres.NewProjectRepository(pg),
			Meetings:      postgres.NewMeetingRepository(pg),
			Skills:        postgres.NewSkillRepository(pg),
			Patterns:      postgres.NewPatternRepository(pg),
			Reminders:     postgres.NewReminderRepository(pg),
			Conversations: postgres.NewConversationRepository(pg),
			Memories:      postgres.NewMemoryRepository(pg),
			Training:      postgres.NewTrainingRepository(pg),
			Audit:         postgres.NewAuditRepository(dbs.AuditDB),
		}, nil
	})
}
